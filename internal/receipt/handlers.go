package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-ocr/internal/logger"
	"github.com/zombor/receipt-ocr/internal/preprocess"
)

// maxFormSize allows high-resolution phone photos
const maxFormSize = int64(50 << 20)

const tooLargeMessage = "File is too large. Maximum size is 50MB. Please compress or resize your image."

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScan extracts the total and date from an uploaded receipt image
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("handlers")

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		log.Error().Err(err).Msg("Error parsing multipart form")
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = tooLargeMessage
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		log.Error().Err(err).Msg("Error getting file from form")
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Error reading file data")
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), header.Filename)

	if wantsProgress(r) {
		s.streamScan(w, r, data, contentType, header.Filename)
		return
	}

	record, err := s.service.Scan(r.Context(), data, contentType, nil)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Error scanning receipt")
		jsonError(w, err.Error(), scanErrorStatus(err))
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// progressLine is one line of a streamed scan response
type progressLine struct {
	Progress *int    `json:"progress,omitempty"`
	Result   *Record `json:"result,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// streamScan writes newline-delimited JSON: progress percentages as OCR runs,
// then the record or an error
func (s *Server) streamScan(w http.ResponseWriter, r *http.Request, data []byte, contentType, filename string) {
	log := logger.WithComponent("handlers")

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	write := func(line progressLine) {
		if err := enc.Encode(line); err != nil {
			log.Debug().Err(err).Msg("Error writing progress")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	last := -1
	record, err := s.service.Scan(r.Context(), data, contentType, func(percent int) {
		if percent == last {
			return
		}
		last = percent
		write(progressLine{Progress: &percent})
	})
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Error scanning receipt")
		write(progressLine{Error: err.Error()})
		return
	}

	write(progressLine{Result: record})
}

func wantsProgress(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("progress")) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// scanErrorStatus maps unreadable uploads to 400 and anything else to 500
func scanErrorStatus(err error) int {
	if errors.Is(err, preprocess.ErrDecode) || errors.Is(err, preprocess.ErrUnsupportedFormat) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// detectContentType falls back to the file extension when the upload has no type
func detectContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
