package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fungible-token-demo/internal/bootstrap"
	"fungible-token-demo/internal/config"
	"fungible-token-demo/internal/model"
)

type cli struct {
	envFile string
	network string
	signer  string
	timeout time.Duration

	env *bootstrap.Env
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "ft",
		Short:         "Fungible token demo client",
		Long:          "Mint, transfer and inspect tokens of the example fungible token contract.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.env == nil {
				return nil
			}
			return c.env.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVar(&c.network, "network", "", "flow.json network (overrides FLOW_NETWORK)")
	flags.StringVar(&c.signer, "signer", "", "flow.json account that signs (overrides FLOW_SIGNER)")
	flags.DurationVar(&c.timeout, "timeout", 30*time.Second, "deadline for each network call")

	root.AddCommand(
		c.mintCmd(),
		c.setupVaultCmd(),
		c.balanceCmd(),
		c.transferCmd(),
		c.accountsCmd(),
		c.historyCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) setup() error {
	if err := godotenv.Load(c.envFile); err != nil && c.envFile != ".env" {
		return fmt.Errorf("load %s: %w", c.envFile, err)
	}

	cfg := config.Load()
	if c.network != "" {
		cfg.Network = c.network
	}
	if c.signer != "" {
		cfg.Signer = c.signer
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return err
	}
	env, err := bootstrap.Build(cfg, logger)
	if err != nil {
		return err
	}
	c.env = env
	return nil
}

func (c *cli) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *cli) mintCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "mint <recipient> <amount>",
		Short:   "Mint tokens into a recipient's vault",
		Example: "  ft mint 0xf8d6e0586b0a20c7 30.0",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.callContext()
			defer cancel()
			tx, err := c.env.Service.MintTokens(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printTransaction(tx)
			return nil
		},
	}
}

func (c *cli) setupVaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-vault",
		Short: "Create an empty token vault for the signer account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.callContext()
			defer cancel()
			tx, err := c.env.Service.SetupServerVault(ctx)
			if err != nil {
				return err
			}
			printTransaction(tx)
			return nil
		},
	}
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show the token balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.callContext()
			defer cancel()
			w, err := c.env.Service.Balance(ctx, args[0])
			if err != nil {
				return err
			}
			pterm.Info.Printfln("%s holds %s tokens", w.Address, w.Balance)
			return nil
		},
	}
}

func (c *cli) transferCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "transfer <recipient> <amount>",
		Short:   "Transfer tokens from the signer account",
		Example: "  ft transfer 0x01cf0e2f2f715450 12.5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.callContext()
			defer cancel()
			tx, err := c.env.Service.TransferFromServer(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printTransaction(tx)
			return nil
		},
	}
}

func (c *cli) accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the flow.json accounts available for login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := make([]pterm.BulletListItem, 0)
			for _, name := range c.env.Service.Accounts() {
				items = append(items, pterm.BulletListItem{Level: 0, Text: name})
			}
			return pterm.DefaultBulletList.WithItems(items).Render()
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently submitted transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.callContext()
			defer cancel()
			txs, err := c.env.Service.RecentTransactions(ctx, limit)
			if err != nil {
				return err
			}
			if len(txs) == 0 {
				pterm.Info.Println("no transactions recorded")
				return nil
			}
			data := pterm.TableData{{"ID", "Kind", "Signer", "Recipient", "Amount", "Submitted"}}
			for _, tx := range txs {
				data = append(data, []string{tx.ID, tx.Kind, tx.Signer, tx.Recipient, tx.Amount, tx.SubmittedAt.Format(time.RFC3339)})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of transactions to show")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL and session event server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer c.env.Log.Sync()

			c.env.Log.Info("using flow network", zap.String("network", c.env.Config.Network))
			return c.env.Serve(ctx)
		},
	}
}

func printTransaction(tx *model.Transaction) {
	pterm.Success.Printfln("%s submitted", tx.Kind)
	fields := [][]string{{"ID", tx.ID}, {"Signer", tx.Signer}}
	if tx.Recipient != "" {
		fields = append(fields, []string{"Recipient", tx.Recipient})
	}
	if tx.Amount != "" {
		fields = append(fields, []string{"Amount", tx.Amount})
	}
	if err := pterm.DefaultTable.WithData(fields).Render(); err != nil {
		log.Println(err)
	}
}
