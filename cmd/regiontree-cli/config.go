package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/zycbobby/regiontree/index/itree"
)

var errInvalidBox = errors.New("box must be an array of [min,max] pairs")

// Config is loaded from the file given with -config.
//
//	{"space": [[0, 300], [0, 300]], "history": "/tmp/regiontree_history"}
type Config struct {
	Space   itree.Space
	History string
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if !gjson.ValidBytes(data) {
		return cfg, fmt.Errorf("config %s: invalid json", path)
	}
	res := gjson.ParseBytes(data)
	if v := res.Get("space"); v.Exists() {
		ivs, err := parseIntervals(v)
		if err != nil {
			return cfg, fmt.Errorf("config %s: space: %w", path, err)
		}
		cfg.Space = itree.Space(ivs)
	}
	cfg.History = res.Get("history").String()
	return cfg, nil
}

// parseSpace reads a flat list of low,high pairs such as "0,300,0,300".
func parseSpace(s string) (itree.Space, error) {
	parts := strings.Split(s, ",")
	if len(parts)%2 != 0 {
		return nil, fmt.Errorf("space '%s' must hold low,high pairs", s)
	}
	var space itree.Space
	for i := 0; i < len(parts); i += 2 {
		low, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return nil, errInvalidArgument(parts[i])
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return nil, errInvalidArgument(parts[i+1])
		}
		space = append(space, itree.Interval{Min: low, Max: high})
	}
	return space, nil
}

// parseBox reads a box from json. Both [[min,max],...] and {"box":[[min,max],...]}
// are accepted.
func parseBox(s string) (itree.Box, error) {
	if !gjson.Valid(s) {
		return nil, errInvalidBox
	}
	res := gjson.Parse(s)
	if res.IsObject() {
		res = res.Get("box")
	}
	ivs, err := parseIntervals(res)
	if err != nil {
		return nil, err
	}
	return itree.Box(ivs), nil
}

func parseIntervals(res gjson.Result) ([]itree.Interval, error) {
	if !res.IsArray() {
		return nil, errInvalidBox
	}
	var ivs []itree.Interval
	var err error
	res.ForEach(func(_, v gjson.Result) bool {
		pair := v.Array()
		if len(pair) != 2 || pair[0].Type != gjson.Number || pair[1].Type != gjson.Number {
			err = errInvalidBox
			return false
		}
		ivs = append(ivs, itree.Interval{Min: pair[0].Float(), Max: pair[1].Float()})
		return true
	})
	if err != nil {
		return nil, err
	}
	return ivs, nil
}
