// Command smoke runs a scripted editing session against a live server and
// reports pass/fail per step. Intended for post-deploy verification, not CI.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type client struct {
	base  string
	token string
	http  *http.Client
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type step struct {
	Name string
	Run  func(c *client, state map[string]string) error
}

func main() {
	var (
		base     string
		email    string
		password string
		timeout  time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", "", "login email")
	flag.StringVar(&password, "password", "", "login password")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}

	c := &client{base: base, http: &http.Client{Timeout: timeout}}
	state := map[string]string{"email": email, "password": password}

	steps := []step{
		{"health", checkHealth},
		{"login", login},
		{"open session", openSession},
		{"add entry", addEntry},
		{"reject clashing entry", rejectClash},
		{"undo", undo},
		{"redo", redo},
		{"conflicts", conflicts},
		{"export csv", exportCSV},
		{"close session", closeSession},
	}

	failed := 0
	for _, s := range steps {
		if err := s.Run(c, state); err != nil {
			fmt.Printf("FAIL  %-24s %v\n", s.Name, err)
			failed++
			continue
		}
		fmt.Printf("ok    %s\n", s.Name)
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d steps failed\n", failed, len(steps))
		os.Exit(1)
	}
	fmt.Printf("\nall %d steps passed\n", len(steps))
}

func checkHealth(c *client, _ map[string]string) error {
	resp, err := c.http.Get(c.base + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func login(c *client, state map[string]string) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.call(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": state["email"], "password": state["password"],
	}, http.StatusOK, &out)
	if err != nil {
		return err
	}
	if out.AccessToken == "" {
		return fmt.Errorf("empty access token")
	}
	c.token = out.AccessToken
	return nil
}

func openSession(c *client, state map[string]string) error {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.call(http.MethodPost, "/api/v1/sessions", map[string]string{"batch_id": "smoke-batch"}, http.StatusCreated, &out); err != nil {
		return err
	}
	state["session"] = out.ID
	return nil
}

func addEntry(c *client, state map[string]string) error {
	var out struct {
		ID string `json:"id"`
	}
	err := c.call(http.MethodPost, "/api/v1/sessions/"+state["session"]+"/entries", map[string]interface{}{
		"day": "MONDAY", "period": 1, "batch_id": "smoke-batch", "teacher_id": "smoke-teacher",
	}, http.StatusCreated, &out)
	if err != nil {
		return err
	}
	state["entry"] = out.ID
	return nil
}

func rejectClash(c *client, state map[string]string) error {
	err := c.call(http.MethodPost, "/api/v1/sessions/"+state["session"]+"/entries", map[string]interface{}{
		"day": "MONDAY", "period": 1, "batch_id": "smoke-batch", "teacher_id": "smoke-teacher",
	}, http.StatusConflict, nil)
	return err
}

func undo(c *client, state map[string]string) error {
	var out struct {
		Applied bool `json:"applied"`
	}
	if err := c.call(http.MethodPost, "/api/v1/sessions/"+state["session"]+"/undo", nil, http.StatusOK, &out); err != nil {
		return err
	}
	if !out.Applied {
		return fmt.Errorf("undo did not apply")
	}
	return nil
}

func redo(c *client, state map[string]string) error {
	var out struct {
		Applied bool `json:"applied"`
	}
	if err := c.call(http.MethodPost, "/api/v1/sessions/"+state["session"]+"/redo", nil, http.StatusOK, &out); err != nil {
		return err
	}
	if !out.Applied {
		return fmt.Errorf("redo did not apply")
	}
	return nil
}

func conflicts(c *client, state map[string]string) error {
	return c.call(http.MethodGet, "/api/v1/sessions/"+state["session"]+"/conflicts", nil, http.StatusOK, nil)
}

func exportCSV(c *client, state map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, c.base+"/api/v1/sessions/"+state["session"]+"/export?format=csv", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty export")
	}
	return nil
}

func closeSession(c *client, state map[string]string) error {
	return c.call(http.MethodDelete, "/api/v1/sessions/"+state["session"], nil, http.StatusNoContent, nil)
}

func (c *client) call(method, path string, payload interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d, want %d: %s", resp.StatusCode, wantStatus, string(raw))
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	return json.Unmarshal(env.Data, out)
}
