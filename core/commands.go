package core

import (
	"encoding/json"
	"strings"
)

const (
	clear  = "\x1b[0m"
	bright = "\x1b[1m"
	gray   = "\x1b[90m"
	yellow = "\x1b[33m"
)

// Command describes one CLI command for help output and completion.
type Command struct {
	Name       string     `json:"-"`
	Summary    string     `json:"summary"`
	Complexity string     `json:"complexity"`
	Arguments  []Argument `json:"arguments"`
	Group      string     `json:"group"`
}

func (c Command) String() string {
	var s = c.Name
	for _, arg := range c.Arguments {
		s += " " + arg.String()
	}
	return s
}

func (c Command) TermOutput(indent string) string {
	line1 := bright + strings.Replace(c.String(), " ", " "+clear+gray, 1) + clear
	line2 := yellow + "summary: " + clear + c.Summary
	line3 := yellow + "complexity: " + clear + c.Complexity
	return indent + line1 + "\n" + indent + line2 + "\n" + indent + line3 + "\n"
}

type Argument struct {
	Command  string      `json:"command"`
	NameAny  interface{} `json:"name"`
	TypeAny  interface{} `json:"type"`
	Optional bool        `json:"optional"`
	Multiple bool        `json:"multiple"`
	Variadic bool        `json:"variadic"`
}

func (a Argument) String() string {
	var s string
	if a.Command != "" {
		s += " " + a.Command
	}
	names, _ := a.NameTypes()
	subs := ""
	for _, name := range names {
		subs += " " + name
	}
	subs = strings.TrimSpace(subs)
	s += " " + subs
	if a.Variadic {
		s += " [" + subs + " ...]"
	}
	if a.Multiple {
		s += " ..."
	}
	s = strings.TrimSpace(s)
	if a.Optional {
		s = "[" + s + "]"
	}
	return s
}

func parseAnyStringArray(any interface{}) []string {
	if str, ok := any.(string); ok {
		return []string{str}
	} else if any, ok := any.([]interface{}); ok {
		arr := []string{}
		for _, any := range any {
			if str, ok := any.(string); ok {
				arr = append(arr, str)
			}
		}
		return arr
	}
	return []string{}
}

func (a Argument) NameTypes() (names, types []string) {
	names = parseAnyStringArray(a.NameAny)
	types = parseAnyStringArray(a.TypeAny)
	if len(types) > len(names) {
		types = types[:len(names)]
	} else {
		for len(types) < len(names) {
			types = append(types, "")
		}
	}
	return
}

// Commands maps upper case command names to their description.
var Commands = func() map[string]Command {
	var commands map[string]Command
	if err := json.Unmarshal([]byte(commandsJSON), &commands); err != nil {
		panic(err.Error())
	}
	for name, command := range commands {
		command.Name = strings.ToUpper(name)
		commands[name] = command
	}
	return commands
}()

var commandsJSON = `{
  "SET": {
    "summary": "Sets the box of an id, replacing any previous box",
    "complexity": "O(log N) for the id plus one tree path",
    "arguments": [
      {"name": "id", "type": "string"},
      {"command": "FIELD", "name": ["name", "value"], "type": ["string", "double"], "optional": true, "multiple": true},
      {"name": "box", "type": "json"}
    ],
    "group": "keys"
  },
  "GET": {
    "summary": "Returns the box and fields of an id",
    "complexity": "O(log N)",
    "arguments": [
      {"name": "id", "type": "string"}
    ],
    "group": "keys"
  },
  "DEL": {
    "summary": "Deletes an id",
    "complexity": "O(log N) for the id plus one tree path",
    "arguments": [
      {"name": "id", "type": "string"}
    ],
    "group": "keys"
  },
  "FSET": {
    "summary": "Sets the value of a field on an id",
    "complexity": "O(log N)",
    "arguments": [
      {"name": "id", "type": "string"},
      {"name": ["field", "value"], "type": ["string", "double"]}
    ],
    "group": "keys"
  },
  "SCAN": {
    "summary": "Iterates through all ids in id order",
    "complexity": "O(N)",
    "arguments": [
      {"command": "CURSOR", "name": "start", "type": "integer", "optional": true},
      {"command": "LIMIT", "name": "count", "type": "integer", "optional": true},
      {"command": "MATCH", "name": "pattern", "type": "pattern", "optional": true}
    ],
    "group": "search"
  },
  "HIT": {
    "summary": "Returns the ids whose box contains a point",
    "complexity": "O(D + M) where D is the tree depth and M the boxes stored along the path",
    "arguments": [
      {"name": "coordinate", "type": "double", "variadic": true}
    ],
    "group": "search"
  },
  "POP": {
    "summary": "Returns and deletes the ids whose box contains a point",
    "complexity": "O(D + M) where D is the tree depth and M the boxes stored along the path",
    "arguments": [
      {"name": "coordinate", "type": "double", "variadic": true}
    ],
    "group": "search"
  },
  "COUNT": {
    "summary": "Returns the number of ids",
    "complexity": "O(1)",
    "arguments": [],
    "group": "server"
  },
  "STATS": {
    "summary": "Returns the shape of the tree and the memory weight of the collection",
    "complexity": "O(N)",
    "arguments": [],
    "group": "server"
  },
  "SPACE": {
    "summary": "Returns the space covered by the tree",
    "complexity": "O(1)",
    "arguments": [],
    "group": "server"
  }
}`
