package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/2x3systems/gofrag/frag"
	"github.com/plan-systems/klog"
)

const usage = `usage: fragtool [flags] <command> <file.json>...

commands:
  check     validate each graph and print its fingerprint
  dedupe    keep one graph per isomorphism class (-out names the result)
  import    add the vertices of each graph to the catalog as building blocks
  cap       cap the free APs of each graph from the catalog (-out names the result)
`

func main() {
	configPath := flag.String("config", "", "YAML config file")
	outPath := flag.String("out", "", "output JSON file")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	err := run(*configPath, *outPath, flag.Arg(0), flag.Args()[1:], fset)
	if err != nil {
		klog.Errorf("%v", err)
	}
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func run(configPath, outPath, cmd string, inputs []string, fset *flag.FlagSet) error {
	cfg := frag.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = frag.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if fset != nil {
		fset.Set("v", fmt.Sprint(cfg.Verbosity))
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	switch cmd {
	case "check":
		reports, err := sess.Check(inputs)
		for _, r := range reports {
			fmt.Println(r)
		}
		return err
	case "dedupe":
		return sess.Dedupe(inputs, outPath)
	case "import":
		return sess.Import(inputs)
	case "cap":
		return sess.Cap(inputs, outPath)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
