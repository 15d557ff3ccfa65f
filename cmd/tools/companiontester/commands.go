package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/config"
	"github.com/zhouzirui/mindful/backend/internal/model/persona"
	"github.com/zhouzirui/mindful/backend/internal/service/ai"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
)

type options struct {
	lexiconPath string
	timeout     time.Duration
	name        string
	raw         bool
	width       int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "companiontester",
		Short: "Exercise the MindfulAI classifier and reply pipeline from the terminal",
		Long: `companiontester runs the sentiment classifier and the companion responder
outside the HTTP server, using the same environment configuration.

Examples:
  companiontester classify "I feel anxious today"
  cat messages.txt | companiontester classify
  companiontester respond --name Sam "I had a rough week"
  companiontester probe`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.LstdFlags | log.Lmicroseconds)
			if err := godotenv.Load(); err != nil {
				log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.lexiconPath, "lexicon", "", "YAML 词表路径，默认使用 SENTIMENT_LEXICON_PATH 或内置词表")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "整体超时时间")

	root.AddCommand(newClassifyCmd(opts), newRespondCmd(opts), newProbeCmd(opts))
	return root
}

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text]",
		Short: "Print the sentiment label of a message, or of each stdin line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, classifier, err := load(opts)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), styleLabel(classifier.Classify(args[0])))
				return nil
			}
			return classifyLines(cmd.InOrStdin(), cmd.OutOrStdout(), classifier)
		},
	}
}

func newRespondCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "respond <text>",
		Short: "Generate one companion reply (remote model or fallback)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, classifier, err := load(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			responder := newResponder(ctx, cfg, classifier)
			start := time.Now()
			reply := responder.Respond(ctx, companion.Request{
				SessionID: fmt.Sprintf("manual-%d", time.Now().UnixNano()),
				Text:      args[0],
				UserName:  opts.name,
			})
			log.Printf("[INFO] 回复完成 耗时=%s remote=%t", time.Since(start), responder.RemoteConfigured())

			fmt.Fprintln(cmd.OutOrStdout(), styleLabel(reply.Sentiment))
			if opts.raw {
				fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
				return nil
			}
			rendered, err := renderMarkdown(reply.Content, opts.width)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "用户名，留空表示匿名")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "输出原始 Markdown")
	cmd.Flags().IntVar(&opts.width, "width", 80, "终端渲染宽度")
	return cmd
}

func newProbeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the configured remote model answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, classifier, err := load(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			responder := newResponder(ctx, cfg, classifier)
			if !responder.RemoteConfigured() {
				return errors.New("远程模型未配置")
			}

			start := time.Now()
			if !responder.Probe(ctx) {
				return fmt.Errorf("远程模型不可达 (耗时 %s)", time.Since(start))
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("remote model reachable in %s", time.Since(start).Round(time.Millisecond))))
			return nil
		},
	}
}

func load(opts *options) (*config.Config, *sentiment.Classifier, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("配置加载失败: %w", err)
	}
	if opts.lexiconPath != "" {
		cfg.Sentiment.LexiconPath = opts.lexiconPath
	}

	lexicon, err := cfg.Sentiment.Lexicon()
	if err != nil {
		return nil, nil, fmt.Errorf("词表加载失败: %w", err)
	}
	return cfg, sentiment.NewClassifier(lexicon), nil
}

func newResponder(ctx context.Context, cfg *config.Config, classifier *sentiment.Classifier) *companion.Responder {
	var generator companion.Generator
	if cfg.AI.Enabled() {
		svc, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("[WARN] AI 服务初始化失败，使用兜底回复: %v", err)
		} else {
			generator = svc
		}
	} else {
		log.Println("[INFO] 未配置 Ark 凭证，使用兜底回复")
	}

	return companion.NewResponder(companion.Config{
		Classifier:   classifier,
		Generator:    generator,
		Persona:      persona.Seed()[0],
		HistoryLimit: cfg.AI.HistoryLimit,
	})
}

func classifyLines(in io.Reader, out io.Writer, classifier *sentiment.Classifier) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", styleLabel(classifier.Classify(line)), line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取标准输入失败: %w", err)
	}
	return nil
}
