package align

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// Remote submits the input FASTA to an HTTP alignment service and writes
// the aligned FASTA from the response body. The service contract is a
// multipart POST of the file under the "input_data" field; a 2xx response
// carries the alignment.
type Remote struct {
	// BaseURL like https://host/msa; the request goes to BaseURL + "/align".
	BaseURL string
	// Client defaults to one with a 2 minute timeout.
	Client *http.Client
}

func (r *Remote) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 2 * time.Minute}
}

// Align uploads inputPath and stores the returned alignment at outputPath.
func (r *Remote) Align(ctx context.Context, inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("input_data", "input.fasta")
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	_ = mw.Close()

	url := strings.TrimRight(r.BaseURL, "/") + "/align"
	req, err := http.NewRequestWithContext(ctx, "POST", url, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client().Do(req)
	if err != nil {
		return fmt.Errorf("alignment service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("alignment service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(outputPath)
		return err
	}
	return out.Close()
}
