package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"mm": func() int { main(); return 0 },
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata/script",
		Setup: setupScriptEnv,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"idof":      cmdIDOf,
			"createdid": cmdCreatedID,
		},
	})
}

// setupScriptEnv writes a SQLite-backed minutes.yaml into the script's
// work dir, where mm finds it by default.
func setupScriptEnv(env *testscript.Env) error {
	env.Setenv("HOME", env.WorkDir)
	cfg := "owner: tester\n" +
		"database:\n" +
		"  driver: sqlite\n" +
		"  path: " + filepath.Join(env.WorkDir, "minutes.db") + "\n" +
		"series:\n" +
		"  - name: Weekly sync\n" +
		"    project: platform\n"
	return os.WriteFile(filepath.Join(env.WorkDir, defaultConfig), []byte(cfg), 0o644)
}

// cmdIDOf stores the first field of the line of FILE containing TEXT in VAR.
func cmdIDOf(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("idof does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: idof FILE TEXT VAR")
	}
	for _, line := range strings.Split(ts.ReadFile(args[0]), "\n") {
		if strings.Contains(line, args[1]) {
			ts.Setenv(args[2], strings.Fields(line)[0])
			return
		}
	}
	ts.Fatalf("no line containing %q", args[1])
}

// cmdCreatedID stores the id from a "Created <kind> <id> ..." line in VAR.
func cmdCreatedID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("createdid does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: createdid FILE VAR")
	}
	f := strings.Fields(ts.ReadFile(args[0]))
	if len(f) < 3 || f[0] != "Created" {
		ts.Fatalf("no Created line in %s", args[0])
	}
	ts.Setenv(args[1], f[2])
}
