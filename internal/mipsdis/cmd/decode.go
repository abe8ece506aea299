package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"mipsdis/internal/analysis"
	"mipsdis/internal/disasm"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [word...]",
	Short: "Decode raw instruction words",
	Long: `Decode hexadecimal instruction words without an ELF file.
Words come from the arguments, from --file or from standard input. Text
after '#' or ';' on an input line is ignored.`,
	Example: `
# Decode a prologue
mipsdis decode 27bdffe0 afbf001c

# microMIPS, little-endian, relocated
mipsdis decode --micromips --endian little --base 0x400000 33bdffe0

# Watch a file that another tool appends words to
mipsdis decode --file words.txt --follow
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("base")
		file, _ := cmd.Flags().GetString("file")
		follow, _ := cmd.Flags().GetBool("follow")
		dump, _ := cmd.Flags().GetBool("dump")

		d, err := newWordDecoder(cmd.OutOrStdout(), base, dump)
		if err != nil {
			return err
		}
		slog.Debug("Decoding words", "decoder", d.backend.Name(), "base", fmt.Sprintf("0x%x", d.va))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		switch {
		case len(args) > 0:
			return d.line(strings.Join(args, " "))
		case file != "":
			return d.tailFile(ctx, file, follow)
		}
		if follow {
			return errors.New("--follow needs --file")
		}
		return d.scan(cmd.InOrStdin())
	},
}

func init() {
	decodeCmd.Flags().String("base", "0", "Address of the first word (hex)")
	decodeCmd.Flags().StringP("file", "f", "", "Read words from a file")
	decodeCmd.Flags().Bool("follow", false, "Keep reading words appended to --file")
	decodeCmd.Flags().Bool("dump", false, "Dump the decoded operand structure")
	rootCmd.AddCommand(decodeCmd)
}

// wordDecoder decodes a stream of words at consecutive addresses.
type wordDecoder struct {
	w       io.Writer
	backend *disasm.MIPS
	va      uint64
	dumper  *spew.ConfigState
	invalid int
}

func newWordDecoder(w io.Writer, base string, dump bool) (*wordDecoder, error) {
	va, err := parseHex(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base address %q: %w", base, err)
	}
	mc, err := cfg.DecoderConfig()
	if err != nil {
		return nil, err
	}
	d := &wordDecoder{w: w, backend: disasm.NewMIPS(mc), va: va}
	if dump {
		d.dumper = &spew.ConfigState{
			Indent:                  "  ",
			DisableMethods:          true,
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
	}
	return d, nil
}

// line decodes every word on one input line.
func (d *wordDecoder) line(s string) error {
	if i := strings.IndexAny(s, "#;"); i >= 0 {
		s = s[:i]
	}
	for _, tok := range strings.Fields(s) {
		word, err := parseHex(tok)
		if err != nil || word > 0xffffffff {
			return fmt.Errorf("invalid instruction word %q", tok)
		}
		d.word(uint32(word))
	}
	return nil
}

func (d *wordDecoder) word(word uint32) {
	in, err := d.backend.DecodeWord(word, d.va)
	if err != nil {
		d.invalid++
		slog.Debug("Undecodable word", "va", fmt.Sprintf("0x%x", d.va), "word", fmt.Sprintf("%08x", word), "error", err)
	}
	line := analysis.AnnotatedInst{
		VA:       d.va,
		Bytes:    in.Raw,
		Inst:     &in,
		Mnemonic: in.Op,
		Operands: in.Operands(),
	}
	if err != nil {
		line.Annotations = []string{err.Error()}
	}
	fmt.Fprintln(d.w, line.String())
	if d.dumper != nil && in.Mips != nil {
		d.dumper.Fdump(d.w, *in.Mips)
	}
	d.va += 4
}

func (d *wordDecoder) scan(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := d.line(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// tailFile decodes the lines of path, waiting for more when follow is set.
func (d *wordDecoder) tailFile(ctx context.Context, path string, follow bool) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:        follow,
		ReOpen:        follow,
		MustExist:     true,
		CompleteLines: true,
		Logger:        tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-t.Lines:
			if !ok {
				return t.Wait()
			}
			if l.Err != nil {
				return l.Err
			}
			if err := d.line(l.Text); err != nil {
				if !follow {
					return err
				}
				slog.Warn("Skipping line", "line", l.Num, "error", err)
			}
		}
	}
}
