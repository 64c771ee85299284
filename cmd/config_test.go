package cmd

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
target_buy = 100.0

[[funds]]
symbol = "VTI"
shares = 0
price = 10.0
target_proportion = 1.0
`

func parseConfigFlags(t *testing.T, args ...string) *configFlags {
	t.Helper()
	c := new(configFlags)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%q) failed: %v", args, err)
	}
	return c
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.toml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigFlags_Defaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	c := parseConfigFlags(t)
	if c.path != "portfolio.toml" || c.provider != "eodhd" || c.targetBuy != nil {
		t.Errorf("defaults = %q, %q, %v", c.path, c.provider, c.targetBuy)
	}

	t.Setenv(EnvConfig, "mine.yaml")
	if c := parseConfigFlags(t); c.path != "mine.yaml" {
		t.Errorf("path = %q; want the %s value", c.path, EnvConfig)
	}
}

func TestConfigFlags_Load(t *testing.T) {
	path := writeConfig(t)

	p, updates, err := parseConfigFlags(t, "-c", path).load(context.Background())
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if p.TargetBuy != 100 || len(p.Funds) != 1 || updates != nil {
		t.Errorf("load() = %+v, %v", p, updates)
	}

	p, _, err = parseConfigFlags(t, "-c", path, "-t", "250").load(context.Background())
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if p.TargetBuy != 250 {
		t.Errorf("TargetBuy = %v; want the -t value 250", p.TargetBuy)
	}
}

func TestConfigFlags_InvalidTargetBuy(t *testing.T) {
	c := new(configFlags)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c.SetFlags(fs)
	if err := fs.Parse([]string{"-t", "lots"}); err == nil {
		t.Error("Parse(-t lots) succeeded; want an error")
	}
}

func TestConfigFlags_PriceProvider(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "")

	if _, err := parseConfigFlags(t).priceProvider(); err == nil {
		t.Error("eodhd without a key succeeded; want an error")
	}
	if _, err := parseConfigFlags(t, "-eodhd-api-key", "demo").priceProvider(); err != nil {
		t.Errorf("eodhd with a key failed: %v", err)
	}
	if _, err := parseConfigFlags(t, "-provider", "yahoo").priceProvider(); err != nil {
		t.Errorf("yahoo failed: %v", err)
	}
	if _, err := parseConfigFlags(t, "-provider", "bloomberg").priceProvider(); err == nil {
		t.Error("unknown provider succeeded; want an error")
	}
}

func TestSolveFlags_Optimize(t *testing.T) {
	p, _, err := parseConfigFlags(t, "-c", writeConfig(t)).load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	s := new(solveFlags)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	s.SetFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	plan, err := s.optimize(context.Background(), p)
	if err != nil {
		t.Fatalf("optimize() failed: %v", err)
	}
	if got := plan.Purchases[0].Shares; got != 9 {
		t.Errorf("shares = %d; want 9", got)
	}
}
