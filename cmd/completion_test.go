package cmd

import (
	"flag"
	"testing"
)

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("rebal", flag.ContinueOnError)
	global.String("log-level", "", "")
	global.Bool("v", false, "")

	root := Completion(global)
	for _, name := range []string{"plan", "check", "prices", "explain", "topic", "help"} {
		if _, ok := root.Sub[name]; !ok {
			t.Errorf("no completion for %q", name)
		}
	}
	if _, ok := root.Flags["log-level"]; !ok {
		t.Error("no completion for the -log-level flag")
	}

	plan := root.Sub["plan"]
	for _, name := range []string{"c", "d", "t", "json", "provider", "max-nodes"} {
		if _, ok := plan.Flags[name]; !ok {
			t.Errorf("no completion for plan -%s", name)
		}
	}
	if root.Sub["topic"].Args == nil {
		t.Error("no completion for topic names")
	}
}
