package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
	"lexivault/infrastructure/config"
	"lexivault/infrastructure/di"
)

// containerFactory builds the dependency container for one invocation.
type containerFactory func(ctx context.Context) (*di.Container, func(), error)

func containerFromConfig(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return di.InitializeContainer(ctx, cfg)
}

type cli struct {
	newContainer containerFactory
	container    *di.Container
	cleanup      func()

	configFile string
	seedFile   string
	userID     int64
}

func newRootCommand(factory containerFactory) *cobra.Command {
	c := &cli{newContainer: factory}

	root := &cobra.Command{
		Use:           "graphctl",
		Short:         "Inspect and edit word relations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "token" {
				return nil
			}
			return c.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.cleanup != nil {
				c.cleanup()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file (sets CONFIG_FILE)")
	root.PersistentFlags().StringVar(&c.seedFile, "seed", "", "load vaults and words from a YAML file before running")
	root.PersistentFlags().Int64Var(&c.userID, "user", 0, "acting user id")

	root.AddCommand(
		c.linkCommand(),
		c.unlinkCommand(),
		c.relatedCommand(),
		c.linkableCommand(),
		c.relationsCommand(),
		c.purgeCommand(),
		c.seedCommand(),
		c.tokenCommand(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	if c.configFile != "" {
		if err := setConfigFile(c.configFile); err != nil {
			return err
		}
	}
	container, cleanup, err := c.newContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	c.container, c.cleanup = container, cleanup

	if c.seedFile != "" {
		n, err := loadSeed(ctx, c.seedFile, container.Vocabulary)
		if err != nil {
			return err
		}
		container.Logger.Debug("Seeded vocabulary", zap.String("file", c.seedFile), zap.Int("words", n))
	}
	return nil
}

func setConfigFile(path string) error {
	return os.Setenv("CONFIG_FILE", path)
}

func (c *cli) user() (valueobjects.UserID, error) {
	id := valueobjects.UserID(c.userID)
	if !id.Valid() {
		return 0, fmt.Errorf("--user is required")
	}
	return id, nil
}

func wordArg(s string) (valueobjects.WordID, error) {
	id, err := valueobjects.ParseWordID(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type seedFile struct {
	Vaults []struct {
		ID     int64  `yaml:"id"`
		Name   string `yaml:"name"`
		UserID int64  `yaml:"user_id"`
	} `yaml:"vaults"`
	Words []struct {
		ID               int64    `yaml:"id"`
		VaultID          int64    `yaml:"vault_id"`
		Name             string   `yaml:"name"`
		GrammaticalClass string   `yaml:"grammatical_class"`
		Category         *string  `yaml:"category"`
		Translations     []string `yaml:"translations"`
		Confidence       int      `yaml:"confidence"`
		IsSaved          bool     `yaml:"is_saved"`
		Frequency        int      `yaml:"frequency"`
	} `yaml:"words"`
}

// loadSeed writes the vaults and words of a YAML file and returns how many words
// it wrote.
func loadSeed(ctx context.Context, path string, w ports.VocabularyWriter) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for _, v := range seed.Vaults {
		vault := entities.Vault{ID: valueobjects.VaultID(v.ID), Name: v.Name, UserID: valueobjects.UserID(v.UserID)}
		if err := w.PutVault(ctx, vault); err != nil {
			return 0, fmt.Errorf("vault %d: %w", v.ID, err)
		}
	}
	for _, sw := range seed.Words {
		word := entities.Word{
			ID:               valueobjects.WordID(sw.ID),
			VaultID:          valueobjects.VaultID(sw.VaultID),
			Name:             sw.Name,
			GrammaticalClass: sw.GrammaticalClass,
			Category:         sw.Category,
			Translations:     sw.Translations,
			Confidence:       sw.Confidence,
			IsSaved:          sw.IsSaved,
			Frequency:        sw.Frequency,
		}
		if word.Translations == nil {
			word.Translations = []string{}
		}
		if err := w.PutWord(ctx, word); err != nil {
			return 0, fmt.Errorf("word %d: %w", sw.ID, err)
		}
	}
	return len(seed.Words), nil
}
