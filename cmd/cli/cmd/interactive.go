// Package cmd - interactive command
package cmd

import (
	"bufio"
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taxmap/core/catalog"
	"taxmap/core/engine"
	"taxmap/core/output"
	"taxmap/core/types"
	"taxmap/core/ui"
	"taxmap/internal/config"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Enter salaries line by line and see the ranking update",
	Long: `Start a prompt that recalculates every country for each salary you
enter. Lines may also change currencies:

  5000            calculate for 5000 per month
  in EUR          set the salary currency
  show GBP        set the display currency
  top 10          show only the ten highest-taxed countries (0 = all)
  country japan   show the breakdown for one country from the last result
  clear           clear the results
  quit            exit`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

func init() {
	interactiveCmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file layered over the built-in catalog")
	interactiveCmd.Flags().BoolVar(&offline, "offline", false, "use the built-in exchange rates instead of fetching")
	rootCmd.AddCommand(interactiveCmd)
}

// prompt holds the interactive state between lines
type prompt struct {
	session   *engine.Session
	catalog   *catalog.Catalog
	w         *ui.Writer
	formatter *output.TableFormatter
	request   engine.Request
	top       int
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	provider := newProvider(cfg, offline)
	// start fetching while the user types
	go func() { _, _ = provider.Snapshot(ctx) }()

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	p := &prompt{
		session:   engine.NewSession(cat, provider, newOrchestrator(cfg)),
		catalog:   cat,
		w:         w,
		formatter: output.NewTableFormatter(cfg.Output.NoColor),
		request:   buildRequest(cfg),
		top:       15,
	}
	p.session.Subscribe(func(b *engine.Batch) {
		if b.Empty() {
			w.Info("Results cleared")
			return
		}
		report := output.NewReport(b)
		report.Top = p.top
		_ = p.formatter.Render(w.Out(), report)
	})

	w.Header("taxmap interactive")
	w.Println("Salary in %s, results in %s. Type a monthly salary, or 'help'.", p.request.InputCurrency, p.request.DisplayCurrency)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		w.Print("> ")
		if !scanner.Scan() {
			w.Println("")
			return scanner.Err()
		}
		if done := p.handle(ctx, strings.TrimSpace(scanner.Text())); done {
			return nil
		}
	}
}

// handle processes one input line and reports whether to exit
func (p *prompt) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		p.w.Println("commands: <salary>, in <CUR>, show <CUR>, top <N>, country <key>, clear, quit")
	case "clear":
		p.session.Clear()
	case "in", "show":
		if len(fields) != 2 {
			p.w.Error("usage: %s <currency>", fields[0])
			return false
		}
		code := types.NormalizeCurrency(fields[1])
		if strings.ToLower(fields[0]) == "in" {
			p.request.InputCurrency = code
		} else {
			p.request.DisplayCurrency = code
		}
		p.w.Success("Salary in %s, results in %s", p.request.InputCurrency, p.request.DisplayCurrency)
		if p.request.MonthlySalary > 0 {
			p.submit(ctx)
		}
	case "top":
		n, err := strconv.Atoi(strings.Join(fields[1:], ""))
		if err != nil || n < 0 {
			p.w.Error("usage: top <N>")
			return false
		}
		p.top = n
	case "country":
		p.country(strings.Join(fields[1:], " "))
	default:
		v, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
		if err != nil {
			p.w.Error("not a salary or command: %q", line)
			return false
		}
		p.request.MonthlySalary = v
		p.submit(ctx)
	}
	return false
}

func (p *prompt) submit(ctx context.Context) {
	_, err := p.session.Submit(ctx, p.request)
	switch {
	case err == nil:
	case stderrors.Is(err, engine.ErrSuperseded):
		// a newer line already replaced this one
	default:
		p.w.Error("%v", err)
	}
}

func (p *prompt) country(key string) {
	latest := p.session.Latest()
	if latest.Empty() {
		p.w.Warning("No results yet; enter a salary first")
		return
	}
	profile, err := p.catalog.Get(key)
	if err != nil {
		p.w.Error("%v", err)
		return
	}
	res, ok := latest.Find(profile.Key)
	if !ok {
		p.w.Error("no result for %s", profile.Key)
		return
	}
	p.formatter.RenderCountry(p.w.Out(), res, profile)
}
