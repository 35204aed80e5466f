package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"
	"flexcode/internal/platform/telemetry"

	convertmod "flexcode/internal/services/convert/module"
	dedupmod "flexcode/internal/services/dedup/module"
	pdom "flexcode/internal/services/pipeline/domain"
	pipemod "flexcode/internal/services/pipeline/module"
	pollmod "flexcode/internal/services/poller/module"
	"flexcode/internal/services/stack"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		fSimulate  = flag.Bool("simulate", false, "use the offline simulator instead of the conversion API")
		fExplain   = flag.Bool("explain", false, "print extracted spans and assembled requests")
		fLimit     = flag.Int("limit", 280, "reply length limit")
		fExtractor = flag.String("extractor", "", "rules | hf (default PIPELINE_EXTRACTOR)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: flexcode-convert [flags] [message text]\n")
		fmt.Fprintf(flag.CommandLine.Output(), "reads the message from stdin when no text is given\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	root := config.New()
	l := logger.Get()

	text := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(text) == "" {
		b, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			l.Fatal().Err(err).Msg("read stdin")
		}
		text = string(b)
	}

	shutdownTracer, err := telemetry.InitTracer(telemetry.FromConfig(root, "flexcode-convert"))
	if err != nil {
		l.Fatal().Err(err).Msg("tracer init failed")
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	ov := stack.Overrides{
		// one-shot runs never dedup or poll
		Dedup:    dedupmod.Options{Backend: "memory"},
		Poller:   pollmod.Options{Source: "none"},
		Pipeline: pipemod.Options{Extractor: *fExtractor},
	}
	if *fSimulate {
		ov.Convert = convertmod.Options{Mode: "simulate"}
	}

	ctx := context.Background()
	s, err := stack.Build(ctx, stack.Deps(root, nil), ov)
	if err != nil {
		l.Fatal().Err(err).Msg("stack build failed")
	}

	res := s.Pipe.Preview(ctx, text, *fLimit)
	if *fExplain {
		explain(os.Stderr, s.Convert.Mode(), s.Pipeline.Extractor(), res)
	}
	fmt.Println(res.Reply)
}

func explain(w io.Writer, mode, extractor string, res pdom.Result) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintf(tw, "run\t%s\textractor=%s convert=%s\n", res.RunID, extractor, mode)
	_, _ = fmt.Fprintln(tw, "\nSPAN\tTEXT\tBYTES\tCLAUSE\tCUE")
	for _, sp := range res.Spans {
		_, _ = fmt.Fprintf(tw, "%s\t%q\t%d-%d\t%d\t%s\n", sp.Kind, sp.Text, sp.Start, sp.End, sp.Clause, sp.Cue)
	}
	_, _ = fmt.Fprintln(tw, "\n#\tCODE\tFROM\tTO\tSTATUS\tUNUSED")
	for _, r := range res.Requests {
		unused := make([]string, len(r.Unused))
		for i, p := range r.Unused {
			unused[i] = p.Name
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Index, r.Code, orDash(r.Source.Name), orDash(r.Target.Name), r.Status(), orDash(strings.Join(unused, ",")))
	}
	_, _ = fmt.Fprintf(tw, "\nconverted=%d failed=%d ambiguous=%d took=%s\n\n", res.Converted, res.Failed, res.Ambiguous, res.Duration)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
