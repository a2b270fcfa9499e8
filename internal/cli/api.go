package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wearrelay/pkg/types"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// apiError is a non-2xx answer from the relay.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("relay returned %d %s", e.status, http.StatusText(e.status))
	}
	return fmt.Sprintf("relay returned %d: %s", e.status, e.msg)
}

// doJSON sends body (when non-nil) as JSON and decodes a 2xx reply into out.
func doJSON(ctx context.Context, cfg *Config, method, path string, body, outv any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(cfg.Server, "/")+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e types.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{status: resp.StatusCode, msg: e.Error}
	}
	if outv == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(outv)
}

func postAction(ctx context.Context, cfg *Config, name string) error {
	var ack types.ActionResponse
	if err := doJSON(ctx, cfg, http.MethodPost, "/actions/"+url.PathEscape(name), nil, &ack); err != nil {
		return err
	}
	fmt.Fprintf(out(cfg), "%s accepted\n", ack.Action)
	return nil
}

func showStatus(ctx context.Context, cfg *Config, asJSON bool) error {
	var st types.StatusResponse
	if err := doJSON(ctx, cfg, http.MethodGet, "/status", nil, &st); err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out(cfg))
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	writeStatus(out(cfg), st, time.Now())
	return nil
}

func listDevices(ctx context.Context, cfg *Config) error {
	var resp types.DevicesResponse
	if err := doJSON(ctx, cfg, http.MethodGet, "/bluetooth/devices", nil, &resp); err != nil {
		return err
	}
	writeDevices(out(cfg), resp.Devices)
	return nil
}

func selectDevice(ctx context.Context, cfg *Config, address string) error {
	var pv types.PreferenceValue
	if err := doJSON(ctx, cfg, http.MethodPost, "/bluetooth/select", types.SelectDeviceRequest{Address: address}, &pv); err != nil {
		return err
	}
	fmt.Fprintf(out(cfg), "selected %s\n", pv.Value)
	return nil
}
