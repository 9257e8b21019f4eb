package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lexivault/application/commands"
	"lexivault/application/queries"
	"lexivault/domain/core/valueobjects"
	"lexivault/infrastructure/config"
	"lexivault/infrastructure/di"
	"lexivault/pkg/auth"
)

func (c *cli) linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link WORD_A WORD_B",
		Short: "Relate two words the user owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.user()
			if err != nil {
				return err
			}
			a, err := wordArg(args[0])
			if err != nil {
				return err
			}
			b, err := wordArg(args[1])
			if err != nil {
				return err
			}
			if err := c.container.CommandBus.Send(cmd.Context(), commands.LinkWordsCommand{UserID: user, WordA: a, WordB: b}); err != nil {
				return err
			}
			pair, _ := valueobjects.NewWordPair(a, b)
			return printJSON(cmd, map[string]valueobjects.WordID{"low": pair.Low, "high": pair.High})
		},
	}
}

func (c *cli) unlinkCommand() *cobra.Command {
	var enforce bool
	cmd := &cobra.Command{
		Use:   "unlink WORD_A WORD_B",
		Short: "Remove the relation between two words",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wordArg(args[0])
			if err != nil {
				return err
			}
			b, err := wordArg(args[1])
			if err != nil {
				return err
			}
			return c.container.CommandBus.Send(cmd.Context(), commands.UnlinkWordsCommand{
				UserID:           valueobjects.UserID(c.userID),
				WordA:            a,
				WordB:            b,
				EnforceOwnership: enforce,
			})
		},
	}
	cmd.Flags().BoolVar(&enforce, "enforce", false, "require --user to own both words")
	return cmd
}

func (c *cli) relatedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "related WORD",
		Short: "List the words related to WORD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.user()
			if err != nil {
				return err
			}
			id, err := wordArg(args[0])
			if err != nil {
				return err
			}
			out, err := c.container.QueryBus.Ask(cmd.Context(), queries.RelatedWordsQuery{UserID: user, WordID: id})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func (c *cli) linkableCommand() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "linkable WORD",
		Short: "List the words WORD could be linked to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.user()
			if err != nil {
				return err
			}
			id, err := wordArg(args[0])
			if err != nil {
				return err
			}
			s, err := valueobjects.ParseLinkScope(scope, "")
			if err != nil {
				return err
			}
			out, err := c.container.QueryBus.Ask(cmd.Context(), queries.LinkableWordsQuery{UserID: user, WordID: id, Scope: s})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "vault or all (default from config)")
	return cmd
}

func (c *cli) relationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relations",
		Short: "List every relation among the user's words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.user()
			if err != nil {
				return err
			}
			out, err := c.container.QueryBus.Ask(cmd.Context(), queries.AllRelationsQuery{UserID: user})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func (c *cli) purgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge WORD",
		Short: "Remove every relation touching WORD",
		Long:  "Remove every relation touching WORD. With --user the word must belong to that user.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wordArg(args[0])
			if err != nil {
				return err
			}
			removed, err := c.container.CommandBus.Dispatch(cmd.Context(), commands.PurgeWordRelationsCommand{
				UserID: valueobjects.UserID(c.userID),
				WordID: id,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"word_id": id, "removed": removed})
		},
	}
}

func (c *cli) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Load vaults and words from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadSeed(cmd.Context(), args[0], c.container.Vocabulary)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int{"words": n})
		},
	}
}

func (c *cli) tokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a session token for --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.user()
			if err != nil {
				return err
			}
			if c.configFile != "" {
				if err := setConfigFile(c.configFile); err != nil {
					return err
				}
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			secret := cfg.JWTSecret
			if secret == "" {
				secret = di.DevJWTSecret
			}
			token, err := auth.GenerateToken(auth.JWTConfig{SecretKey: secret, Issuer: cfg.JWTIssuer}, user, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			return printJSON(cmd, map[string]string{"token": token})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
