package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runTest 重現了原本 Makefile 的邏輯：
// 1. go clean -testcache
// 2. go test ./... -cover -count=1 2>&1 | grep -E '^(ok|FAIL)'
func runTest() {
	PrintGreen("running tests")

	cleanCmd := exec.Command("go", "clean", "-testcache")
	if err := cleanCmd.Run(); err != nil {
		PrintRed(err.Error())
		// clean 失敗不中斷
	}

	cmd := exec.Command("go", "test", "./...", "-cover", "-count=1")

	// 取得 stdout 的 pipe，逐行過濾；stderr 併入同一個 pipe（等同 2>&1），
	// 這樣編譯錯誤也能被讀到。
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		panic(err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		PrintRed(fmt.Sprintf("Error starting go test: %v", err))
		os.Exit(1)
	}

	scanner := bufio.NewScanner(stdoutPipe)
	for scanner.Scan() {
		line := scanner.Text()
		// 只印 ok/FAIL 行；額外捕捉 build/setup failed，避免輸出全被過濾掉
		if strings.HasPrefix(line, "ok") {
			PrintGreen(line)
		} else if strings.HasPrefix(line, "FAIL") {
			PrintRed(line)
		} else if strings.Contains(line, "build failed") || strings.Contains(line, "setup failed") {
			PrintRed(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		PrintRed("\nTests Finished with Errors\n")
		os.Exit(1)
	}
}

// runTestAll 對應 Makefile:
//
// test-all:
//
//	go clean -testcache && go test -cover ./...
func runTestAll() {
	PrintGreen("running tests (all with coverage)")

	cleanCmd := exec.Command("go", "clean", "-testcache")
	cleanCmd.Stdout = os.Stdout
	cleanCmd.Stderr = os.Stderr
	if err := cleanCmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("go clean -testcache failed: %v", err))
		os.Exit(1)
	}

	testCmd := exec.Command("go", "test", "./...", "-cover")
	testCmd.Stdout = os.Stdout
	testCmd.Stderr = os.Stderr

	if err := testCmd.Run(); err != nil {
		PrintRed("\nTests (with coverage) finished with errors\n")
		os.Exit(1)
	}
}

// runTestDetail verbose 測試，顯示所有 log，但過濾掉 "[no test files]" 的行。
func runTestDetail() {
	PrintGreen("running tests (detail)")

	cleanCmd := exec.Command("go", "clean", "-testcache")
	cleanCmd.Stdout = os.Stdout
	cleanCmd.Stderr = os.Stderr
	if err := cleanCmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("go clean -testcache failed: %v", err))
		os.Exit(1)
	}

	cmd := exec.Command("go", "test", "./...", "-v", "-count=1")

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		PrintRed(fmt.Sprintf("failed to get stdout pipe: %v", err))
		os.Exit(1)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		PrintRed(fmt.Sprintf("Error starting go test: %v", err))
		os.Exit(1)
	}

	scanner := bufio.NewScanner(stdoutPipe)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "[no test files]") {
			continue
		}
		if strings.HasPrefix(line, "ok") {
			PrintGreen(line)
		} else if strings.HasPrefix(line, "FAIL") {
			PrintRed(line)
		} else {
			fmt.Println(line)
		}
	}

	if err := scanner.Err(); err != nil {
		PrintRed(fmt.Sprintf("scanner error: %v", err))
	}

	if err := cmd.Wait(); err != nil {
		PrintRed("\nTests (detail) finished with errors\n")
		os.Exit(1)
	}
}
