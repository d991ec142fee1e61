package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
)

type verifyEnvelope struct {
	Data struct {
		Valid       bool                      `json:"valid"`
		Number      *models.CertificateNumber `json:"number"`
		StudentName string                    `json:"student_name"`
		Company     string                    `json:"company"`
		IssuedAt    *time.Time                `json:"issued_at"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base    string
		number  string
		offline bool
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&number, "number", "", "Certificate number to verify")
	flag.BoolVar(&offline, "offline", false, "Only validate the number format, without hitting the API")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if number == "" {
		flag.Usage()
		os.Exit(2)
	}

	parsed, err := models.ParseCertificateNumber(number)
	if err != nil {
		log.Fatalf("malformed certificate number: %v", err)
	}
	fmt.Printf("format ok: org=%s date=%04d-%02d-%02d seq=%d\n", parsed.Org, parsed.Year, parsed.Month, parsed.Day, parsed.Sequence)

	if offline {
		return
	}

	client := &http.Client{Timeout: timeout}
	endpoint := fmt.Sprintf("%s/api/v1/certificates/verify?number=%s", base, url.QueryEscape(number))
	resp, err := client.Get(endpoint)
	if err != nil {
		log.Fatalf("verification request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var envelope verifyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		log.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Error != nil {
		log.Fatalf("verification rejected: %s (%s)", envelope.Error.Message, envelope.Error.Code)
	}

	if !envelope.Data.Valid {
		fmt.Println("result: NOT FOUND - no certificate was issued under this number")
		os.Exit(1)
	}

	fmt.Printf("result: VALID - issued to %s for %s", envelope.Data.StudentName, envelope.Data.Company)
	if envelope.Data.IssuedAt != nil {
		fmt.Printf(" on %s", envelope.Data.IssuedAt.Format("02 January 2006"))
	}
	fmt.Println()
}
