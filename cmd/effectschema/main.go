// Command effectschema writes the JSON schema of the relay wire messages.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/combat"
	"github.com/RidwanSharkar/Eidolon-VI-sub004/internal/protocol"
)

// wireMessages groups every payload a relay client can send or receive
type wireMessages struct {
	Effect   combat.SyncEffect      `json:"effect"`
	Relayed  protocol.RelayedEffect `json:"relayed"`
	Create   protocol.CreateMsg     `json:"create"`
	Created  protocol.CreatedMsg    `json:"created"`
	Join     protocol.JoinMsg       `json:"join"`
	Joined   protocol.JoinedMsg     `json:"joined"`
	Check    protocol.CheckMsg      `json:"check"`
	Checked  protocol.CheckedMsg    `json:"checked"`
	Welcome  protocol.WelcomeMsg    `json:"welcome"`
	Peer     protocol.PeerMsg       `json:"peer"`
	Sessions []protocol.SessionInfo `json:"sessions"`
	Error    protocol.ErrorMsg      `json:"error"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(wireMessages))
	schema.Title = "Eidolon Relay Messages"
	schema.Description = "Payloads carried in {t, d} envelopes and msgpack effect frames"
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
