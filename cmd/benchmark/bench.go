package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockGatewayPort = 9091
	appPort         = 8082
)

// Load-tests the console's reconcile preview endpoint against a mock
// gateway, so numbers reflect the console itself and not upstream latency.
func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	flag.Parse()

	go startMockGateway()

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("SERVER_PORT=%d", appPort),
		fmt.Sprintf("GATEWAY_BASE_URL=http://localhost:%d", mockGatewayPort),
		"SERVER_API_KEYS=bench-key-12345",
		"DATABASE_DSN=file:bench.db?mode=memory&cache=shared",
		"LOG_LEVEL=error",
	)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	fmt.Printf("Running benchmark: %s duration, %d req/s\n", *duration, *rate)

	targeter := func(t *vegeta.Target) error {
		t.Method = "POST"
		t.URL = fmt.Sprintf("http://localhost:%d/v1/reconcile/preview", appPort)
		t.Header = http.Header{
			"Content-Type":  []string{"application/json"},
			"Authorization": []string{"Bearer bench-key-12345"},
		}
		return nil
	}

	attacker := vegeta.NewAttacker()
	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "reconcile-preview") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Printf("\nRequests:  %d\n", metrics.Requests)
	fmt.Printf("Success:   %.2f%%\n", metrics.Success*100)
	fmt.Printf("p50:       %s\n", metrics.Latencies.P50)
	fmt.Printf("p95:       %s\n", metrics.Latencies.P95)
	fmt.Printf("p99:       %s\n", metrics.Latencies.P99)
	fmt.Printf("Max:       %s\n", metrics.Latencies.Max)
}

// startMockGateway serves instant verify and model-list responses.
func startMockGateway() {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if err := http.ListenAndServe(fmt.Sprintf(":%d", mockGatewayPort), mux); err != nil {
		log.Fatalf("Mock gateway failed: %v", err)
	}
}

func waitForApp(url string) {
	for i := 0; i < 50; i++ {
		resp, err := http.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	log.Fatal("App did not become ready in time")
}
