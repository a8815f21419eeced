package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/image-tone/internal/imaging"
	"github.com/ironsheep/image-tone/internal/tone"
	"github.com/ironsheep/image-tone/internal/version"
)

// batchWorkers bounds how many images of one batch are processed at once.
const batchWorkers = 4

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      "Image Tone API",
		"version":   version.String(),
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "API is running",
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: missing file field", errBadRequest))
		return
	}
	defer file.Close()

	resp, err := s.saveUpload(file, header)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info().Str("id", resp.ID).Str("filename", resp.Filename).Msg("image uploaded")
	writeJSON(w, http.StatusOK, resp)
}

// saveUpload checks that an uploaded part is a decodable image and stores it.
func (s *Server) saveUpload(file multipart.File, header *multipart.FileHeader) (*ImageResponse, error) {
	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: file must be an image", errBadRequest)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	info, err := imaging.DescribeBytes(data)
	if err != nil {
		return nil, err
	}

	name := header.Filename
	if filepath.Ext(name) == "" {
		name += imaging.Extension(imaging.FormatFromName(info.Format))
	}
	id, _, err := s.store.SaveUpload(name, data)
	if err != nil {
		return nil, err
	}
	return imageResponse(id, header.Filename, info), nil
}

func imageResponse(id, filename string, info *imaging.ImageInfo) *ImageResponse {
	return &ImageResponse{
		ID:          id,
		Filename:    filename,
		Format:      strings.ToUpper(info.Format),
		Mode:        info.Mode,
		Width:       info.Width,
		Height:      info.Height,
		SizeBytes:   info.FileSizeBytes,
		CameraModel: info.CameraModel,
		CaptureTime: info.CaptureTime,
	}
}

// processStored runs op on a fresh session built from the original upload of
// id and replaces the processed result.
func (s *Server) processStored(id string, op func(*tone.Session) (*tone.Raster, error)) error {
	src, err := s.store.Original(id)
	if err != nil {
		return err
	}
	d, err := imaging.Open(src)
	if err != nil {
		return err
	}
	out, err := op(tone.NewSession(imaging.ToRaster(d.Image)))
	if err != nil {
		return err
	}
	dst, err := s.store.ProcessedPath(id, imaging.Extension(imaging.FormatFromFilename(src)))
	if err != nil {
		return err
	}
	return imaging.Save(imaging.FromRaster(out), dst)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	adj, err := s.adjustmentParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.processStored(id, func(session *tone.Session) (*tone.Raster, error) {
		return session.Adjust(adj)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustResponse{
		Success:    true,
		Message:    "Image processed successfully",
		OutputID:   id,
		Brightness: adj.Brightness,
		Contrast:   adj.Contrast,
		Saturation: adj.Saturation,
	})
}

func (s *Server) handleAutoAdjust(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.processStored(id, func(session *tone.Session) (*tone.Raster, error) {
		return session.AutoLevel()
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationResponse{
		Success:   true,
		Message:   "Automatic level stretch applied",
		OutputID:  id,
		Operation: "auto_adjust",
	})
}

func (s *Server) handleCLAHE(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	clip, err := floatParam(r, "clip_limit", tone.DefaultCLAHEParams.ClipLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	grid, err := intParam(r, "tile_grid", tone.DefaultCLAHEParams.TileRows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.cfg.Limits.CheckCLAHE(clip, grid); err != nil {
		s.fail(w, r, err)
		return
	}

	params := tone.CLAHEParams{ClipLimit: clip, TileRows: grid, TileCols: grid}
	err = s.processStored(id, func(session *tone.Session) (*tone.Raster, error) {
		return session.CLAHE(params)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationResponse{
		Success:   true,
		Message:   "Adaptive local contrast applied",
		OutputID:  id,
		Operation: "clahe",
		Parameters: map[string]float64{
			"clip_limit": clip,
			"tile_grid":  float64(grid),
		},
	})
}

func (s *Server) handleSCurve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	intensity, err := floatParam(r, "intensity", 0.5)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.cfg.Limits.CheckIntensity(intensity); err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.processStored(id, func(session *tone.Session) (*tone.Raster, error) {
		return session.SCurve(intensity)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationResponse{
		Success:    true,
		Message:    "S-curve applied",
		OutputID:   id,
		Operation:  "s_curve",
		Parameters: map[string]float64{"intensity": intensity},
	})
}

// resolve returns the processed or original file for id.
func (s *Server) resolve(id string, processed bool) (string, error) {
	if processed {
		return s.store.Processed(id)
	}
	return s.store.Original(id)
}

// histogramFor loads the requested file for id and computes its histogram.
func (s *Server) histogramFor(r *http.Request, def bool) (tone.HistogramTable, bool, error) {
	processed, err := processedParam(r, def)
	if err != nil {
		return nil, false, err
	}
	path, err := s.resolve(r.PathValue("id"), processed)
	if err != nil {
		return nil, false, err
	}
	d, err := imaging.Open(path)
	if err != nil {
		return nil, false, err
	}
	return tone.Histogram(imaging.ToRaster(d.Image)), processed, nil
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	table, processed, err := s.histogramFor(r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HistogramResponse{
		ID:        r.PathValue("id"),
		Processed: processed,
		Histogram: table,
		Stats:     tone.Summarize(table),
	})
}

func (s *Server) handleHistogramImage(w http.ResponseWriter, r *http.Request) {
	table, _, err := s.histogramFor(r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	chart := imaging.RenderHistogram(table, imaging.ChartWidth, imaging.ChartHeight)
	w.Header().Set("Content-Type", "image/png")
	if err := imaging.EncodePNG(w, chart); err != nil {
		s.log.Error().Err(err).Msg("failed to write histogram chart")
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	processed, err := processedParam(r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path, err := s.resolve(r.PathValue("id"), processed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", imaging.MimeTypeFromFilename(path))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	processed, err := processedParam(r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path, err := s.resolve(r.PathValue("id"), processed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := imaging.Open(path)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := imaging.FormatFromFilename(path)
	small := imaging.Preview(d.Image, s.cfg.PreviewMaxSize)
	data, err := imaging.EncodeDataURL(small, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{
		ID:        r.PathValue("id"),
		Processed: processed,
		MimeType:  imaging.MimeType(format),
		Width:     small.Bounds().Dx(),
		Height:    small.Bounds().Dy(),
		Data:      data,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	path, err := s.store.Original(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info, err := imaging.ReadImageInfo(path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imageResponse(id, filepath.Base(path), info))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.store.Delete(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	names := make([]string, len(deleted))
	for i, p := range deleted {
		names[i] = filepath.Base(p)
	}
	s.log.Info().Str("id", id).Strs("files", names).Msg("image deleted")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       fmt.Sprintf("Image %s deleted", id),
		"deleted_files": names,
	})
}

func (s *Server) handleProcessBase64(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	raw := r.FormValue("image_data")
	if raw == "" {
		s.fail(w, r, fmt.Errorf("%w: missing image_data field", errBadRequest))
		return
	}
	adj, err := s.adjustmentParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := imaging.DecodeDataURL(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := tone.NewSession(imaging.ToRaster(d.Image)).Adjust(adj)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	png, err := imaging.PreviewPNG(imaging.FromRaster(out), 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Base64Response{
		Success:    true,
		Brightness: adj.Brightness,
		Contrast:   adj.Contrast,
		Saturation: adj.Saturation,
		Data:       "data:" + png.MimeType + ";base64," + png.ImageBase64,
	})
}

func (s *Server) handleBatchProcess(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		s.fail(w, r, fmt.Errorf("%w: no files uploaded", errBadRequest))
		return
	}
	adj, err := s.adjustmentParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	headers := r.MultipartForm.File["files"]
	results := make([]BatchItem, len(headers))
	slots := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup
	for i, h := range headers {
		wg.Add(1)
		slots <- struct{}{}
		go func(i int, h *multipart.FileHeader) {
			defer wg.Done()
			defer func() { <-slots }()
			results[i] = s.batchOne(h, adj)
		}(i, h)
	}
	wg.Wait()

	resp := BatchResponse{
		Brightness: adj.Brightness,
		Contrast:   adj.Contrast,
		Saturation: adj.Saturation,
		Results:    results,
	}
	for _, item := range results {
		if item.Success {
			resp.Processed++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// batchOne stores and adjusts a single file of a batch. Failures are
// reported in the item rather than failing the whole batch.
func (s *Server) batchOne(h *multipart.FileHeader, adj tone.Adjustments) BatchItem {
	item := BatchItem{Filename: h.Filename}
	f, err := h.Open()
	if err != nil {
		item.Error = err.Error()
		return item
	}
	defer f.Close()

	resp, err := s.saveUpload(f, h)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.ID = resp.ID
	err = s.processStored(resp.ID, func(session *tone.Session) (*tone.Raster, error) {
		return session.Adjust(adj)
	})
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.Success = true
	return item
}
