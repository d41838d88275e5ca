package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/peterh/liner"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/pretty"
	"github.com/zycbobby/regiontree/core"
	"github.com/zycbobby/regiontree/index/itree"
)

func userHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		if home == "" {
			home = os.Getenv("USERPROFILE")
		}
		return home
	}
	return os.Getenv("HOME")
}

var (
	spaceArg    string
	configPath  string
	historyFile string
	verbose     bool
	veryVerbose bool
	quiet       bool
	raw         bool
	oneCommand  string
)

const defaultSpace = "-180,180,-90,90"

var groupsM = make(map[string][]string)

func main() {
	flag.StringVar(&spaceArg, "space", "", "Space as low,high pairs per dimension (default "+defaultSpace+").")
	flag.StringVar(&configPath, "config", "", "Path to a json config file.")
	flag.StringVar(&historyFile, "history", filepath.Join(userHomeDir(), ".regiontree_history"), "Path to the history file.")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.BoolVar(&raw, "raw", false, "Print replies without indentation.")
	flag.Parse()
	oneCommand = strings.Join(flag.Args(), " ")

	var logw io.Writer = os.Stderr
	if quiet {
		logw = io.Discard
	}
	log.SetOutput(logw)
	switch {
	case veryVerbose:
		log.SetLevel(log.DebugLevel)
	case verbose:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}

	space, err := resolveSpace()
	if err != nil {
		log.Fatal(err)
	}
	c, err := newController(space)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("regiontree %s, %d dimensions", core.Version, len(space))

	if oneCommand != "" {
		if !output(c, oneCommand) {
			os.Exit(1)
		}
		return
	}
	repl(c)
}

// resolveSpace picks the space from -space, then the config file, then the
// default.
func resolveSpace() (itree.Space, error) {
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if cfg.History != "" {
			historyFile = cfg.History
		}
		if spaceArg == "" && cfg.Space != nil {
			log.Debugf("space from %s", configPath)
			return cfg.Space, nil
		}
	}
	if spaceArg == "" {
		spaceArg = defaultSpace
	}
	return parseSpace(spaceArg)
}

// output runs a command and prints its reply. It reports whether the command
// succeeded.
func output(c *controller, command string) bool {
	msg, err := c.exec(command)
	if err != nil {
		if oneCommand != "" {
			fmt.Fprintln(os.Stdout, errorReply(err))
		} else {
			fmt.Fprintln(os.Stderr, "(error) "+err.Error())
		}
		return false
	}
	if raw {
		fmt.Fprintln(os.Stdout, msg)
	} else {
		os.Stdout.Write(pretty.Pretty([]byte(msg)))
	}
	return true
}

func repl(c *controller) {
	line := liner.NewLiner()
	defer line.Close()

	var commands []string
	for name, command := range core.Commands {
		commands = append(commands, name)
		groupsM[command.Group] = append(groupsM[command.Group], name)
	}
	sort.Strings(commands)
	var groups []string
	for group, arr := range groupsM {
		groups = append(groups, "@"+group)
		sort.Strings(arr)
		groupsM[group] = arr
	}
	sort.Strings(groups)

	line.SetMultiLineMode(false)
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(line string) (c []string) {
		if strings.HasPrefix(strings.ToLower(line), "help ") {
			var nitems []string
			nline := strings.TrimSpace(line[5:])
			if nline == "" || nline[0] == '@' {
				for _, n := range groups {
					if strings.HasPrefix(strings.ToLower(n), strings.ToLower(nline)) {
						nitems = append(nitems, line[:len(line)-len(nline)]+strings.ToLower(n))
					}
				}
			} else {
				for _, n := range commands {
					if strings.HasPrefix(strings.ToLower(n), strings.ToLower(nline)) {
						nitems = append(nitems, line[:len(line)-len(nline)]+strings.ToUpper(n))
					}
				}
			}
			for _, n := range nitems {
				if strings.HasPrefix(strings.ToLower(n), strings.ToLower(line)) {
					c = append(c, n)
				}
			}
		} else {
			for _, n := range commands {
				if strings.HasPrefix(strings.ToLower(n), strings.ToLower(line)) {
					c = append(c, n)
				}
			}
		}
		return
	})
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err != nil {
			log.Warnf("history: %s", err.Error())
		} else {
			line.WriteHistory(f)
			f.Close()
		}
	}()
	for {
		command, err := line.Prompt("regiontree> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading line: %s\n", err.Error())
			continue
		}
		nohist := strings.HasPrefix(command, " ")
		command = strings.TrimSpace(command)
		if command == "" {
			continue
		}
		if !nohist {
			line.AppendHistory(command)
		}
		lcmd := strings.ToLower(command)
		switch {
		case lcmd == "exit" || lcmd == "quit":
			return
		case lcmd == "raw":
			raw = true
			fmt.Fprintln(os.Stderr, "raw mode is ON")
		case lcmd == "pretty":
			raw = false
			fmt.Fprintln(os.Stderr, "raw mode is OFF")
		case lcmd == "help" || strings.HasPrefix(lcmd, "help "):
			help(strings.TrimSpace(command[4:]))
		default:
			output(c, command)
		}
	}
}

func help(arg string) {
	if arg == "" {
		fmt.Fprintf(os.Stderr, "regiontree-cli %s (git:%s)\n", core.Version, core.GitSHA)
		fmt.Fprintf(os.Stderr, `Type: "help @<group>" to get a list of commands in <group>`+"\n")
		fmt.Fprintf(os.Stderr, `      "help <command>" for help on <command>`+"\n")
		fmt.Fprintf(os.Stderr, `      "help <tab>" to get a list of possible help topics`+"\n")
		fmt.Fprintf(os.Stderr, `      "quit" to exit`+"\n")
		return
	}
	if strings.HasPrefix(arg, "@") {
		for _, command := range groupsM[arg[1:]] {
			fmt.Fprintf(os.Stderr, "%s\n", core.Commands[command].TermOutput("  "))
		}
	} else if command, ok := core.Commands[strings.ToUpper(arg)]; ok {
		fmt.Fprintf(os.Stderr, "%s\n", command.TermOutput("  "))
	}
}
