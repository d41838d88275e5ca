package main

import (
	"errors"
	"fmt"
	"strconv"
)

var errInvalidNumberOfArguments = errors.New("invalid number of arguments")
var errIDNotFound = errors.New("id not found")

func errInvalidArgument(arg string) error {
	return fmt.Errorf("invalid argument '%s'", arg)
}

func errDuplicateArgument(arg string) error {
	return fmt.Errorf("duplicate argument '%s'", arg)
}

func token(line string) (newLine, token string) {
	for i := 0; i < len(line); i++ {
		if line[i] == ' ' {
			return line[i+1:], line[:i]
		}
	}
	return "", line
}

func tokenlc(line string) (newLine, token string) {
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch == ' ' {
			return line[i+1:], line[:i]
		}
		if ch >= 'A' && ch <= 'Z' {
			lc := make([]byte, 0, 16)
			if i > 0 {
				lc = append(lc, []byte(line[:i])...)
			}
			lc = append(lc, ch+32)
			i++
			for ; i < len(line); i++ {
				ch = line[i]
				if ch == ' ' {
					return line[i+1:], string(lc)
				}
				if ch >= 'A' && ch <= 'Z' {
					lc = append(lc, ch+32)
				} else {
					lc = append(lc, ch)
				}
			}
			return "", string(lc)
		}
	}
	return "", line
}

// tokenFloat reads the next token as a float.
func tokenFloat(line string) (newLine string, value float64, err error) {
	var s string
	if newLine, s = token(line); s == "" {
		return "", 0, errInvalidNumberOfArguments
	}
	value, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return "", 0, errInvalidArgument(s)
	}
	return newLine, value, nil
}

// tokenUint reads the next token as an unsigned integer.
func tokenUint(line string) (newLine string, value uint64, err error) {
	var s string
	if newLine, s = token(line); s == "" {
		return "", 0, errInvalidNumberOfArguments
	}
	value, err = strconv.ParseUint(s, 10, 64)
	if err != nil {
		return "", 0, errInvalidArgument(s)
	}
	return newLine, value, nil
}
