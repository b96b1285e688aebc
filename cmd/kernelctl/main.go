// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// kernelctl is a thin client for the node's line-delimited JSON RPC
// protocol: it sends one {command, params} request and prints the
// {status, result, message} response it gets back.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
)

type options struct {
	RPCServer string `long:"rpcserver" default:"127.0.0.1:8336" description:"address of the node's RPC listener"`
	Timeout   int    `long:"timeout" default:"10" description:"seconds to wait for a response"`
}

type request struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	args, err := parser.Parse()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: kernelctl [options] <command> [key=value ...]")
	}
	command, paramArgs := args[0], args[1:]

	params, err := buildParams(paramArgs)
	if err != nil {
		return err
	}
	req := request{Command: command, Params: params}
	line, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	conn, err := net.DialTimeout("tcp", opts.RPCServer, time.Duration(opts.Timeout)*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", opts.RPCServer, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(time.Duration(opts.Timeout) * time.Second))

	if _, err := conn.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		return fmt.Errorf("connection closed with no response")
	}

	var resp response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return printResponse(resp)
}

// buildParams turns a flat list of key=value arguments into the JSON
// object each command's params struct expects, guessing int64 for
// purely-numeric values and leaving everything else as a string.
func buildParams(args []string) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	fields := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, value, ok := splitKeyValue(arg)
		if !ok {
			return nil, fmt.Errorf("malformed parameter %q, want key=value", arg)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			fields[key] = n
		} else {
			fields[key] = value
		}
	}
	return json.Marshal(fields)
}

func splitKeyValue(arg string) (key, value string, ok bool) {
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			return arg[:i], arg[i+1:], true
		}
	}
	return "", "", false
}

func printResponse(resp response) error {
	var pretty []byte
	var err error
	if len(resp.Result) > 0 {
		pretty, err = indentJSON(resp.Result)
	}
	if err != nil {
		return err
	}

	switch resp.Status {
	case "ok":
		if len(pretty) > 0 {
			fmt.Println(string(pretty))
		}
		return nil
	default:
		if resp.Message != "" {
			return fmt.Errorf("%s", resp.Message)
		}
		return fmt.Errorf("rpc error with no message")
	}
}

func indentJSON(raw json.RawMessage) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}
