package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/niksmo/office-storefront/internal/adapter/kvstore"
	"github.com/niksmo/office-storefront/internal/adapter/notifier"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/service"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

type itemArg struct {
	productID string
	quantity  int
}

// parseItem accepts "id" or "id:quantity".
func parseItem(s string) (itemArg, error) {
	id, qty, hasQty := strings.Cut(strings.TrimSpace(s), ":")
	if id == "" {
		return itemArg{}, fmt.Errorf("item %q: empty product id", s)
	}
	it := itemArg{productID: id, quantity: 1}
	if hasQty {
		n, err := strconv.Atoi(qty)
		if err != nil || n < 1 {
			return itemArg{}, fmt.Errorf("item %q: invalid quantity", s)
		}
		it.quantity = n
	}
	return it, nil
}

func (c *cli) newQuoteCmd() *cobra.Command {
	var (
		items   []string
		contact domain.Contact
		link    bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Build a request for quotation message",
		Long: `quote collects catalog products into a quote list and prints the
request for quotation message. With --whatsapp the WhatsApp link is
printed instead; name and phone are required then.`,
		Example: `  storectl quote --item 1 --item 12:3 --name Jane --phone 0501234567 --whatsapp`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := c.catalog()
			if err != nil {
				return err
			}

			sessions := service.NewSessionStore(service.SessionStoreConfig{
				Storage: kvstore.NewMemory(),
			})
			sess := sessions.Create(cmd.Context())
			for _, raw := range items {
				it, err := parseItem(raw)
				if err != nil {
					return err
				}
				p, err := catalog.Product(it.productID)
				if err != nil {
					return err
				}
				snap := sess.AddProduct(p)
				if it.quantity > 1 {
					sess.SetQuantity(p.ID, quantityOf(snap, p.ID)+it.quantity-1)
				}
			}

			quotes := service.NewQuoteService(
				notifier.NewLog(nil),
				service.QuoteServiceConfig{
					WhatsAppNumber: c.cfg.Quote.WhatsAppNumber,
					Currency:       c.cfg.Quote.Currency,
				},
			)
			sess.SetForm(contact)

			w := cmd.OutOrStdout()
			if !link {
				if sess.Quote().ItemCount == 0 {
					return domain.ErrEmptyQuote
				}
				fmt.Fprintln(w, quotes.Message(sess))
				return nil
			}

			url, err := quotes.SubmitWhatsApp(cmd.Context(), sess)
			if err != nil {
				return err
			}
			if c.outputJSON {
				return c.writeJSON(w, map[string]string{"url": url})
			}
			fmt.Fprintln(w, url)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&items, "item", nil, "product id with optional quantity, id[:qty] (repeatable)")
	cmd.Flags().StringVar(&contact.Name, "name", "", "requester name")
	cmd.Flags().StringVar(&contact.Email, "email", "", "requester email")
	cmd.Flags().StringVar(&contact.Phone, "phone", "", "requester phone")
	cmd.Flags().StringVar(&contact.Company, "company", "", "company name")
	cmd.Flags().StringVar(&contact.Message, "message", "", "additional message")
	cmd.Flags().BoolVar(&link, "whatsapp", false, "print the WhatsApp link")
	return cmd
}

func quantityOf(snap service.QuoteSnapshot, productID string) int {
	for _, it := range snap.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (c *cli) newQuotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Inspect archived quote requests",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent quote requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			archive, closeFn, err := c.deps.openArchive(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			qs, err := archive.ListQuotes(ctx, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if c.outputJSON {
				return c.writeJSON(w, toQuoteRows(qs))
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tCHANNEL\tNAME\tTOTAL\tSTATUS")
			for _, q := range qs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\n",
					q.ID, q.CreatedAt.Format(time.RFC3339), q.Channel,
					q.Contact.Name, q.Currency, q.Total.StringFixed(2), q.Status)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "number of requests")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived quote request as the requester sent it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			archive, closeFn, err := c.deps.openArchive(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			q, err := archive.ReadQuote(ctx, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if c.outputJSON {
				return c.writeJSON(w, toQuoteRows([]domain.StoredQuote{q})[0])
			}
			fmt.Fprintf(w, "Quote %s (%s, %s)\n\n", q.ID, q.Channel, q.Status)
			fmt.Fprintln(w, service.FormatQuoteMessage(q.Contact, q.Items, q.Currency))
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func (c *cli) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage quote request status",
	}

	set := &cobra.Command{
		Use:   "set <id> <status>",
		Short: "Emit a status update: pending, processing, sent, completed or cancelled",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := domain.ParseQuoteStatus(args[1])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			emitter, closeFn, err := c.deps.openEmitter(c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := emitter.EmitQuoteStatus(ctx, args[0], st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "quote %s: %s\n", args[0], st)
			return nil
		},
	}

	cmd.AddCommand(set)
	return cmd
}

type quoteRow struct {
	ID        string `json:"id"`
	Channel   string `json:"channel"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone"`
	Company   string `json:"company,omitempty"`
	Currency  string `json:"currency"`
	Total     string `json:"total"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	Items     int    `json:"items"`
}

func toQuoteRows(qs []domain.StoredQuote) []quoteRow {
	rows := make([]quoteRow, len(qs))
	for i, q := range qs {
		rows[i] = quoteRow{
			ID:        q.ID,
			Channel:   string(q.Channel),
			Name:      q.Contact.Name,
			Email:     q.Contact.Email,
			Phone:     q.Contact.Phone,
			Company:   q.Contact.Company,
			Currency:  q.Currency,
			Total:     q.Total.StringFixed(2),
			Status:    string(q.Status),
			CreatedAt: q.CreatedAt.Format(time.RFC3339),
			Items:     len(q.Items),
		}
	}
	return rows
}
