package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/order-interpreter/internal/pipeline"
)

func interpretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interpretar [texto]",
		Short: "Interpret one order and print the final record as JSON",
		Long: `Interpret one free-text order. The text is read from standard input
when no argument is given.

Example:
  pedidos interpretar "Necesito 3 buñuelos para mañana antes de las 3pm"
  echo "2 arepas para hoy" | pedidos interpretar --canal whatsapp --usar-modelo=false`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, _ := cmd.Flags().GetString("canal")
			compact, _ := cmd.Flags().GetBool("compact")

			var text string
			if len(args) > 0 {
				text = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimRight(string(b), "\r\n")
			}

			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			req := pipeline.Request{Text: text, Channel: channel}
			if cmd.Flags().Changed("usar-modelo") {
				useModel, _ := cmd.Flags().GetBool("usar-modelo")
				req.UseModel = &useModel
			}

			out, err := a.proc.Interpret(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(out)
		},
	}

	cmd.Flags().String("canal", "", "channel the order arrived on (default formulario_web)")
	cmd.Flags().Bool("usar-modelo", true, "request a model draft (defaults to USE_VERTEX)")
	cmd.Flags().Bool("compact", false, "print single-line JSON")
	return cmd
}
