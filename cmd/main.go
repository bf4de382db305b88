package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"hmm-tagger/internal/config"
	"hmm-tagger/internal/controller"
	"hmm-tagger/internal/handler"
	"hmm-tagger/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sampleSentences are tagged when no input file is given
var sampleSentences = []string{
	"आज होगा जबरदस्त मुकाबला क्रिकेट का !",
	"सरकार हमारी जरूरतों को पूरा करे ।",
	"इस नीति के बारे में कुछ भी सही नहीं है ।",
	"आपने क्या उस जगह पर जाने की कोशिश की थी जो मैंने आपको बताया था ?",
	"कई दशक पहले यहां एक बड़ा बरगद का पेड़ हुआ करता था ।",
	"उन्होंने कहा - भारत में आपका स्वागत है !",
	"दिन के अंत तक हम कितनी दूरी तय कर सकते हैं ?",
	"राजा और रानी बहुत घमंडी थे |",
	"मेरे पास फिल्म को निर्देशित करने के लिए पैसे नहीं हैं |",
	"नदी के पास एक झोपड़ी है इसलिए हम वहां डेरा डाल सकते हैं !",
}

type app struct {
	configPath string
	envPath    string
	workDir    string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}
	if err := a.rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hmm-tagger",
		Short:         "HMM part-of-speech tagger with Viterbi decoding",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to app configuration file")
	root.PersistentFlags().StringVar(&a.envPath, "env", ".env", "Path to env file with overrides")
	root.PersistentFlags().StringVar(&a.workDir, "workdir", "", "Working directory to store files")

	root.AddCommand(a.trainCommand())
	root.AddCommand(a.tagCommand())
	root.AddCommand(a.evaluateCommand())
	root.AddCommand(a.serveCommand())
	return root
}

func (a *app) init() error {
	if err := config.LoadDotEnv(a.envPath); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	// Override workdir from command line if provided
	if a.workDir != "" {
		cfg.App.WorkDir = a.workDir
	}

	cfgZap := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	cfgZap.Level = level
	cfgZap.OutputPaths = cfg.App.LogOutputs
	logger, err := cfgZap.Build()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.logger.Info("Configuration loaded successfully", zap.Any("config", cfg))
	return nil
}

func (a *app) newService() *service.TaggerService {
	taggerService, err := service.NewTaggerService(a.cfg, a.logger)
	if err != nil {
		a.logger.Fatal("Failed to initialize tagger service", zap.Error(err))
	}
	return taggerService
}

func (a *app) trainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Build the transition and emission tables from the labeled corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.newService().Train(cmd.Context())
			if err != nil {
				a.logger.Error("Training failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model %s: %d tags, %d words, %d tokens\n",
				stats.ModelID, stats.TagsetSize, stats.VocabularySize, stats.TotalTokens)
			return nil
		},
	}
}

func (a *app) tagCommand() *cobra.Command {
	var inputPath, outputPath string

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag sentences with the Viterbi decoder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			taggerService := a.newService()
			if _, err := taggerService.EnsureModel(ctx); err != nil {
				a.logger.Error("No model available", zap.Error(err))
				return err
			}

			lines := sampleSentences
			if inputPath != "" {
				var err error
				if lines, err = taggerService.Loader().ReadLines(inputPath); err != nil {
					return err
				}
			}

			if outputPath == "" {
				outputPath = a.cfg.OutputPath(a.cfg.Output.TaggedFile)
			}
			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer out.Close()

			n, err := taggerService.TagAll(ctx, lines, out)
			if err != nil {
				return err
			}
			a.logger.Info("Wrote tagged output", zap.String("path", outputPath), zap.Int("sentences", n))
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "File with one untagged sentence per line")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output file (defaults to output.tagged_file in the workdir)")
	return cmd
}

func (a *app) evaluateCommand() *cobra.Command {
	var goldDir string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure tagging accuracy against a labeled gold corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			taggerService := a.newService()
			if _, err := taggerService.EnsureModel(ctx); err != nil {
				return err
			}

			gold, err := taggerService.Loader().LoadDir(ctx, goldDir)
			if err != nil {
				return err
			}
			result, err := taggerService.Evaluate(ctx, gold)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Got %d/%d tokens for %.02f%% accuracy (%d/%d sentences fully correct)\n",
				result.CorrectTokens, result.Tokens, 100*result.TokenAccuracy,
				result.CorrectSentences, result.Sentences)
			return nil
		},
	}

	cmd.Flags().StringVar(&goldDir, "gold", "", "Directory of labeled gold files")
	cmd.MarkFlagRequired("gold")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tagger over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			taggerService := a.newService()
			if _, err := taggerService.EnsureModel(cmd.Context()); err != nil {
				a.logger.Fatal("Failed to prepare model", zap.Error(err))
			}

			taggerController := controller.NewTaggerController(taggerService, a.logger)
			router := handler.SetupRouter(taggerController, a.logger)

			a.logger.Info("Starting server", zap.Int("port", a.cfg.App.Port))
			if err := http.ListenAndServe(fmt.Sprintf(":%d", a.cfg.App.Port), router); err != nil {
				a.logger.Fatal("Failed to start server", zap.Error(err))
			}
			return nil
		},
	}
}
