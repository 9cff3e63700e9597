package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type filter struct {
	SearchTerm         string `json:"searchTerm,omitempty"`
	SortKey            string `json:"sortKey,omitempty"`
	Category           string `json:"category,omitempty"`
	OnlineOnly         bool   `json:"onlineOnly,omitempty"`
	ExcludeVacationing bool   `json:"excludeVacationing,omitempty"`
	DateFilter         string `json:"dateFilter,omitempty"`
	City               string `json:"city,omitempty"`
}

type trainer struct {
	ID string `json:"id"`
}

type session struct {
	SessionID string    `json:"sessionId"`
	Token     uint64    `json:"token"`
	Trainers  []trainer `json:"trainers"`
	More      bool      `json:"more"`
	Error     *string   `json:"error"`
	Handle    *struct {
		Token string `json:"token"`
	} `json:"handle"`
}

type envelope struct {
	Data  session `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type step struct {
	Label    string
	Status   int
	Loaded   int
	Added    int
	More     bool
	Duration time.Duration
	Problem  string
}

func main() {
	var (
		base       string
		maxScrolls int
		timeout    time.Duration
		f          filter
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "Discovery API base URL")
	flag.IntVar(&maxScrolls, "max-scrolls", 20, "Stop after this many scroll triggers")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.StringVar(&f.SearchTerm, "search", "", "Search term")
	flag.StringVar(&f.SortKey, "sort", "", "Sort key")
	flag.StringVar(&f.Category, "category", "", "Specialty category")
	flag.BoolVar(&f.OnlineOnly, "online", false, "Online trainers only")
	flag.BoolVar(&f.ExcludeVacationing, "exclude-vacationing", false, "Hide trainers on vacation")
	flag.StringVar(&f.DateFilter, "date", "", "Date filter: today, tomorrow or week")
	flag.StringVar(&f.City, "city", "", "City filter")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	base = strings.TrimRight(base, "/")

	var steps []step
	seen := map[string]struct{}{}
	failures := 0

	body, err := json.Marshal(f)
	if err != nil {
		log.Fatalf("encode filter: %v", err)
	}
	created, st, err := call(client, http.MethodPost, base+"/discovery/sessions", "", body)
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	st.Label = "create"
	st.Problem = check(seen, created.Trainers, 0)
	steps = append(steps, st)
	if created.Handle == nil {
		log.Fatalf("create session: response carried no handle")
	}

	handle := created.Handle.Token
	current := created
	for i := 0; i < maxScrolls && current.More && current.Error == nil; i++ {
		prev := len(current.Trainers)
		next, st, err := call(client, http.MethodPost, fmt.Sprintf("%s/discovery/sessions/%s/more", base, created.SessionID), handle, nil)
		st.Label = fmt.Sprintf("scroll %d", i+1)
		if err != nil {
			st.Problem = err.Error()
			steps = append(steps, st)
			break
		}
		st.Added = len(next.Trainers) - prev
		st.Problem = check(seen, next.Trainers[min(prev, len(next.Trainers)):], prev)
		if st.Problem == "" && next.Token != created.Token {
			st.Problem = fmt.Sprintf("token changed from %d to %d without a filter change", created.Token, next.Token)
		}
		if st.Problem == "" && len(next.Trainers) < prev {
			st.Problem = "result list shrank"
		}
		steps = append(steps, st)
		current = next
	}

	_, _, _ = call(client, http.MethodDelete, fmt.Sprintf("%s/discovery/sessions/%s", base, created.SessionID), handle, nil)

	fmt.Println("Scroll Probe Report")
	fmt.Println("===================")
	for _, st := range steps {
		status := "OK"
		if st.Problem != "" {
			status = "FAIL"
			failures++
		}
		fmt.Printf("[%s] %-10s status=%d loaded=%d added=%d more=%t (%s)\n", status, st.Label, st.Status, st.Loaded, st.Added, st.More, st.Duration)
		if st.Problem != "" {
			fmt.Printf("  Problem: %s\n", st.Problem)
		}
	}
	if current.Error != nil {
		fmt.Printf("Session error: %s\n", *current.Error)
	}
	fmt.Printf("Unique trainers: %d, Failures: %d\n", len(seen), failures)
	if failures > 0 {
		os.Exit(1)
	}
}

// check records ids and reports the first duplicate.
func check(seen map[string]struct{}, trainers []trainer, offset int) string {
	for i, t := range trainers {
		if _, dup := seen[t.ID]; dup {
			return fmt.Sprintf("duplicate trainer %s at position %d", t.ID, offset+i)
		}
		seen[t.ID] = struct{}{}
	}
	return ""
}

func call(client *http.Client, method, url, handle string, payload []byte) (session, step, error) {
	var st step
	if client == nil {
		return session{}, st, errors.New("nil client")
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return session{}, st, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if handle != "" {
		req.Header.Set("X-Discovery-Session", handle)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return session{}, st, err
	}
	defer resp.Body.Close()
	st.Duration = time.Since(start)
	st.Status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return session{}, st, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusNoContent {
		return session{}, st, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return session{}, st, fmt.Errorf("decode body: %w", err)
	}
	if env.Error != nil {
		return session{}, st, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	st.Loaded = len(env.Data.Trainers)
	st.More = env.Data.More
	return env.Data, st, nil
}
