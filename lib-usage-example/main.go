package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/generator"
)

func main() {
	// Usage: go run *.go -scopedir "https://github.com/essif-lab/framework/tree/master/docs/tev2" -vsntag "mrgtest"

	scopeDirFlag := flag.String("scopedir", "", "Scope directory, local path or GitHub URL")
	versionFlag := flag.String("vsntag", "", "Version tag of the MRG to generate")
	tokenFlag := flag.String("token", "", "GitHub API token (optional)")

	// Parse the command-line flags
	flag.Parse()

	if *scopeDirFlag == "" || *versionFlag == "" {
		fmt.Println("Scope directory and version tag are required. Use the -scopedir and -vsntag flags.")
		return
	}

	remote, err := connectors.NewGithubConnector(connectors.GithubConfig{Token: *tokenFlag, RetryMax: 2})
	if err != nil {
		fmt.Println(err)
		return
	}
	local, err := connectors.NewLocalFSConnector(connectors.DefaultPattern)
	if err != nil {
		fmt.Println(err)
		return
	}

	gen := generator.New(generator.Options{Local: local, Remote: remote})
	res, err := gen.Generate(context.Background(), generator.Request{
		ScopeDir:   *scopeDirFlag,
		VersionTag: *versionFlag,
		DryRun:     true,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, e := range res.MRG.Entries {
		fmt.Println(e.TermID, e.ScopeTag, e.Locator)
	}
}
