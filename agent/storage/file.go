package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

const (
	filePrefix = "itinerary_"
	fileSuffix = ".json"
)

// FileConfig is read with the ITINERARY_FILE prefix.
type FileConfig struct {
	BaseURL string `split_words:"true" default:"itineraries"`
}

// FileStore keeps itinerary_<id>.json documents under any afs URL (local
// directory, mem://, cloud buckets).
type FileStore struct {
	fs      afs.Service
	baseURL string
}

var (
	_ ItineraryStore = (*FileStore)(nil)
	_ Lister         = (*FileStore)(nil)
)

func NewFileStore(cfg FileConfig) *FileStore {
	return NewFileStoreWithService(afs.New(), cfg.BaseURL)
}

func NewFileStoreWithService(fs afs.Service, baseURL string) *FileStore {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "itineraries"
	}
	return &FileStore{fs: fs, baseURL: base}
}

func (s *FileStore) filename(conversationID string) string {
	return url.Join(s.baseURL, filePrefix+conversationID+fileSuffix)
}

func (s *FileStore) Load(ctx context.Context, conversationID string) (*statex.ItineraryOutput, error) {
	if err := checkID(conversationID); err != nil {
		return nil, err
	}
	location := s.filename(conversationID)
	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("check itinerary %s: %w", conversationID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItineraryNotFound, conversationID)
	}

	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("download itinerary %s: %w", conversationID, err)
	}
	var it statex.ItineraryOutput
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("decode itinerary %s: %w", conversationID, err)
	}
	return &it, nil
}

// Save writes a temporary object and moves it over the target.
func (s *FileStore) Save(ctx context.Context, conversationID string, it *statex.ItineraryOutput) error {
	if err := checkSave(conversationID, it); err != nil {
		return err
	}
	data, err := json.MarshalIndent(it, "", "  ")
	if err != nil {
		return fmt.Errorf("encode itinerary %s: %w", conversationID, err)
	}

	target := s.filename(conversationID)
	tmp := url.Join(s.baseURL, ".tmp-"+conversationID+"-"+uuid.NewString()+fileSuffix)
	if err := s.fs.Upload(ctx, tmp, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload itinerary %s: %w", conversationID, err)
	}
	if err := s.fs.Move(ctx, tmp, target); err != nil {
		_ = s.fs.Delete(ctx, tmp)
		return fmt.Errorf("move itinerary %s: %w", conversationID, err)
	}
	return nil
}

// List returns the ids of every stored itinerary.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	ok, err := s.fs.Exists(ctx, s.baseURL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}

	var ids []string
	for _, o := range objects {
		if o.IsDir() {
			continue
		}
		name := path.Base(o.Name())
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if checkID(id) == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
