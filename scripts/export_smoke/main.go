// Command export_smoke drives a running API instance through the full export
// flow: create a form, post submissions, enqueue an export, poll the job and
// download the result. Exits non-zero when any step fails, so it can gate a
// deploy.
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
	"strings"
	"time"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type step struct {
	Name     string
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base    string
		email   string
		pass    string
		format  string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&email, "email", "admin@example.com", "login email")
	flag.StringVar(&pass, "password", "", "login password")
	flag.StringVar(&format, "format", "csv", "export format to exercise (csv, excel-csv, json)")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if pass == "" {
		log.Fatal("-password is required")
	}

	client := &http.Client{Timeout: timeout}
	runner := &runner{client: client, base: strings.TrimRight(base, "/")}

	steps := []step{
		runner.run("login", func() error { return runner.login(email, pass) }),
		runner.run("create form", runner.createForm),
		runner.run("submit entries", runner.submitEntries),
		runner.run("enqueue export", func() error { return runner.enqueueExport(format) }),
		runner.run("await completion", runner.awaitCompletion),
		runner.run("download result", runner.downloadResult),
		runner.run("delete form", runner.deleteForm),
	}

	failed := 0
	fmt.Println("Export Smoke Report")
	fmt.Println("===================")
	for _, s := range steps {
		status := "OK"
		if s.Err != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s (%s)\n", status, s.Name, s.Duration)
		if s.Err != nil {
			fmt.Printf("  Error: %v\n", s.Err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

type runner struct {
	client *http.Client
	base   string

	token       string
	formID      string
	jobID       string
	downloadURL string
	stopped     bool
}

// run skips remaining steps after the first failure so the report stays
// readable.
func (r *runner) run(name string, fn func() error) step {
	if r.stopped {
		return step{Name: name, Err: fmt.Errorf("skipped")}
	}
	start := time.Now()
	err := fn()
	if err != nil {
		r.stopped = true
	}
	return step{Name: name, Duration: time.Since(start), Err: err}
}

func (r *runner) login(email, password string) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := r.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return fmt.Errorf("no access token in response")
	}
	r.token = out.AccessToken
	return nil
}

func (r *runner) createForm() error {
	body := map[string]interface{}{
		"title": fmt.Sprintf("smoke-%d", time.Now().Unix()),
		"fields": []map[string]interface{}{
			{"id": "name", "label": "Name", "type": "text", "required": true},
			{"id": "score", "label": "Score", "type": "rating"},
		},
		"status": "published",
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := r.do(http.MethodPost, "/forms", body, &out); err != nil {
		return err
	}
	if out.ID == "" {
		return fmt.Errorf("no form id in response")
	}
	r.formID = out.ID
	return nil
}

func (r *runner) submitEntries() error {
	for i := 1; i <= 3; i++ {
		body := map[string]interface{}{
			"data": map[string]interface{}{
				"name":  fmt.Sprintf("smoke user %d", i),
				"score": i + 2,
			},
			"source_label": "smoke-test",
		}
		if err := r.do(http.MethodPost, "/forms/"+r.formID+"/submissions", body, nil); err != nil {
			return fmt.Errorf("submission %d: %w", i, err)
		}
	}
	return nil
}

func (r *runner) enqueueExport(format string) error {
	var out struct {
		ID string `json:"id"`
	}
	if err := r.do(http.MethodPost, "/forms/"+r.formID+"/exports", map[string]string{"format": format}, &out); err != nil {
		return err
	}
	if out.ID == "" {
		return fmt.Errorf("no job id in response")
	}
	r.jobID = out.ID
	return nil
}

func (r *runner) awaitCompletion() error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		var out struct {
			Status string `json:"status"`
			Error  string `json:"error"`
			Result *struct {
				DownloadURL string `json:"download_url"`
			} `json:"result"`
		}
		if err := r.do(http.MethodGet, "/exports/"+r.jobID, nil, &out); err != nil {
			return err
		}
		switch out.Status {
		case "completed":
			if out.Result == nil || out.Result.DownloadURL == "" {
				return fmt.Errorf("completed job has no download URL")
			}
			r.downloadURL = out.Result.DownloadURL
			return nil
		case "failed":
			return fmt.Errorf("export job failed: %s", out.Error)
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("job %s did not finish in time", r.jobID)
}

func (r *runner) downloadResult() error {
	url := r.downloadURL
	if strings.HasPrefix(url, "/") {
		root := strings.TrimSuffix(r.base, "/api/v1")
		url = root + url
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %d", resp.StatusCode)
	}
	if len(payload) == 0 {
		return fmt.Errorf("downloaded file is empty")
	}
	return nil
}

func (r *runner) deleteForm() error {
	return r.do(http.MethodDelete, "/forms/"+r.formID, nil, nil)
}

func (r *runner) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, r.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	return json.Unmarshal(env.Data, out)
}
