// In file: cmd/weather-chat/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/config"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/usage"
	"github.com/dileep-u-k/weather-agent/internal/weather"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	colorAccent = color.RGB(240, 150, 0)
	faint       = color.New(color.Faint)
	bold        = color.New(color.Bold)
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	city := flag.String("city", "", "city to ask about (prompted when empty)")
	flag.Parse()

	if err := run(*configPath, strings.TrimSpace(*city)); err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
}

func run(configPath, city string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	wx, err := weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherOptions()...)
	if err != nil {
		return err
	}
	client, err := llm.NewClient(cfg.Provider, cfg.LLMAPIKey, cfg.LLMOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}
	if closer, ok := client.(io.Closer); ok {
		defer closer.Close()
	}
	weatherAgent, err := agent.New(client, wx, cfg.AgentConfig())
	if err != nil {
		return err
	}

	fmt.Println(bold.Sprint("🌤️  Weather Chat Agent"))
	fmt.Println(faint.Sprint("Ask me about the weather in your location!"))

	in := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	loc, ok := chooseLocation(ctx, in, wx, city)
	if !ok {
		return nil
	}
	fmt.Println(color.GreenString("✅ Location set to %s", loc.Name))
	fmt.Println(faint.Sprint("commands: /stats, /quit"))

	r := &repl{
		agent:   weatherAgent,
		pricing: cfg.ModelPricing(),
		state:   agent.NewConversationState(uuid.NewString(), loc),
	}
	r.run(ctx, in)
	return nil
}

// chooseLocation prompts until a city resolves. It returns false on EOF.
func chooseLocation(ctx context.Context, in *bufio.Scanner, wx *weather.Client, city string) (api.Location, bool) {
	for {
		if city == "" {
			fmt.Print(colorAccent.Sprint("📍 Enter your city: "))
			if !in.Scan() {
				return api.Location{}, false
			}
			city = strings.TrimSpace(in.Text())
			if city == "" {
				continue
			}
		}
		coords, err := wx.ResolveCoordinates(ctx, city)
		switch {
		case err != nil:
			fmt.Println(color.RedString("❌ %s", agent.FriendlyError(err)))
		case coords == nil:
			fmt.Println(color.RedString("❌ City '%s' not found. Please check spelling or try another city.", city))
		default:
			return api.Location{Latitude: coords.Latitude, Longitude: coords.Longitude, Name: city}, true
		}
		city = ""
	}
}

type repl struct {
	agent   *agent.Agent
	pricing usage.Pricing
	state   agent.ConversationState
}

func (r *repl) run(ctx context.Context, in *bufio.Scanner) {
	for {
		fmt.Print("\n" + colorAccent.Sprint("●") + bold.Sprint(" You: "))
		if !in.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			r.printStats()
			return
		case "/stats":
			r.printStats()
			continue
		}

		fmt.Println(faint.Sprint("thinking..."))
		res, err := r.agent.Chat(ctx, agent.UserQuery{
			Message:   line,
			Latitude:  r.state.Location.Latitude,
			Longitude: r.state.Location.Longitude,
		})
		r.state = r.state.Record(line, res, err, r.pricing)
		if err != nil {
			fmt.Println(color.RedString("%s", agent.FriendlyError(err)))
			continue
		}
		fmt.Println(renderAnswer(res.Answer))
	}
}

func (r *repl) printStats() {
	s := r.state.Stats.Summary()
	fmt.Println(faint.Sprintf("messages: %d | input tokens: %d | output tokens: %d | cost: %s",
		s.Messages, s.InputTokens, s.OutputTokens, s.FormattedCost))
}

func renderAnswer(text string) string {
	var margin uint = 0
	dark := styles.DarkStyleConfig
	dark.Document.Color = nil
	dark.Document.Margin = &margin
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(dark),
		glamour.WithWordWrap(80),
	)
	content := colorAccent.Sprint("●") + bold.Sprint(" Agent") + "\n"
	if err != nil {
		return content + text
	}
	markdown, err := renderer.Render(text)
	if err != nil {
		return content + text
	}
	return content + strings.TrimSpace(markdown)
}
