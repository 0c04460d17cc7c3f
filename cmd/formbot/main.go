package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tbxark/formdoc/agent"
	"github.com/tbxark/formdoc/command"
	"github.com/tbxark/formdoc/dialogue"
	"github.com/tbxark/formdoc/fields"
	"github.com/tbxark/formdoc/filler"
	"github.com/tbxark/formdoc/template"
)

func main() {
	envErr := godotenv.Load()
	name, args := subcommand(os.Args[1:])
	config, err := loadConfig("formbot "+name, args, os.Getenv)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	setupLogger(config.LogLevel)
	if envErr != nil {
		slog.Debug(".env file not loaded", "error", envErr)
	}

	ctx := context.Background()
	switch name {
	case "run":
		err = startApp(ctx, config, os.Stdin, os.Stdout)
	case "check":
		err = checkTemplates(ctx, config, os.Stdout)
	case "init":
		err = initTemplates(config, os.Stdout)
	default:
		err = fmt.Errorf("unknown command %q, want run, check or init", name)
	}
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
}

// subcommand splits "formbot [run|check|init] [flags]"; run is the default.
func subcommand(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "run", args
}

type stores struct {
	state   agent.StateReadWriter
	history *agent.HistoryStore
	close   func() error
}

func newStores(ctx context.Context, config *Config) (*stores, error) {
	trimmer := agent.KeepSystemLastNTrimmer{N: config.HistorySize}
	if config.RedisAddr == "" {
		states := agent.NewMemoryCache[*agent.State](config.SessionTTL)
		history := agent.NewMemoryCache[[]*schema.Message](config.SessionTTL)
		sweepCtx, cancel := context.WithCancel(ctx)
		if config.SessionTTL > 0 {
			go sweep(sweepCtx, min(config.SessionTTL, time.Minute), states.Sweep, history.Sweep)
		}
		return &stores{
			state:   agent.NewStateReadWriter(states),
			history: agent.NewHistoryStore(history, trimmer),
			close: func() error {
				cancel()
				return nil
			},
		}, nil
	}
	rdb, err := agent.DialRedis(ctx, config.RedisAddr)
	if err != nil {
		return nil, err
	}
	slog.Info("Using redis session store", "addr", config.RedisAddr)
	return &stores{
		state:   agent.NewStateReadWriter(agent.NewRedisCache[*agent.State](rdb, "formbot:", config.SessionTTL)),
		history: agent.NewHistoryStore(agent.NewRedisCache[[]*schema.Message](rdb, "formbot:", config.SessionTTL), trimmer),
		close:   rdb.Close,
	}, nil
}

// sweep drops expired sessions until ctx is done.
func sweep(ctx context.Context, every time.Duration, sweepers ...func() int) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := 0
			for _, fn := range sweepers {
				n += fn()
			}
			if n > 0 {
				slog.Debug("Expired sessions removed", "entries", n)
			}
		}
	}
}

func flowOptions(ctx context.Context, config *Config, st *stores) ([]agent.FlowOption, error) {
	opts := []agent.FlowOption{
		agent.WithStateReadWriter(st.state),
		agent.WithValueProviders(agent.NewDateProvider()),
		agent.WithAccessList(agent.NewAccessList(config.Admins...)),
	}
	if config.APIKey == "" {
		return opts, nil
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	parser, err := command.NewToolBasedCommandParser(cm)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based command parser: %w", err)
	}
	slog.Info("Using chat model for commands and questions", "model", config.Model)
	return append(opts,
		agent.WithCommandParser(command.NewKeywordFirstCommandParser(command.NewLocalCommandParser(), parser)),
		agent.WithDialogueGenerator(dialogue.NewFailbackDialogueGenerator(
			dialogue.NewToolBasedDialogueGenerator(cm),
			dialogue.LocalDialogueGenerator{},
		)),
	), nil
}

func startApp(ctx context.Context, config *Config, in io.Reader, out io.Writer) error {
	c, err := loadCatalog(config)
	if err != nil {
		return err
	}
	rules := c.FieldRules()
	source := template.NewDirSource(config.TemplatesDir)
	extractor := template.NewExtractor(source, rules)
	logTemplates(inspectTemplates(ctx, c, source, extractor))

	st, err := newStores(ctx, config)
	if err != nil {
		return err
	}
	defer st.close()
	opts, err := flowOptions(ctx, config, st)
	if err != nil {
		return err
	}
	flow, err := agent.NewFlow(
		c,
		fields.NewAggregator(c, extractor, rules),
		filler.NewGenerator(c, source),
		newFileDelivery(config.OutputDir, out),
		opts...,
	)
	if err != nil {
		return err
	}
	formAgent := agent.NewAgent(
		"FormBot",
		"Fills medical document templates field by field through a conversation",
		flow,
	)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: formAgent,
	})

	session := config.Session
	if session == "" {
		session = uuid.NewString()
	}
	chatCtx := agent.WithStateKey(ctx, session)
	slog.Info("Session started", "session", session)

	resp, err := flow.Start(chatCtx)
	if err != nil {
		return err
	}
	render(out, resp.Text(), resp)

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Вы: ")
		input, rErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if rErr != nil {
				fmt.Fprintln(out, "\nДо свидания.")
				return nil
			}
			continue
		}
		history, hErr := st.history.Append(chatCtx, schema.UserMessage(input))
		if hErr != nil {
			return hErr
		}
		iter := runner.Run(chatCtx, history)
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				return mErr
			}
			if _, apErr := st.history.Append(chatCtx, msg); apErr != nil {
				return apErr
			}
			resp, _ := event.Output.CustomizedOutput.(*agent.Response)
			render(out, msg.Content, resp)
			if resp != nil && resp.Ended() {
				_ = st.history.Clear(chatCtx)
			}
		}
		if rErr != nil {
			return nil
		}
	}
}
