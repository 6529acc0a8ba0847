package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// memRepo implements domain.StateRepository in memory
type memRepo struct {
	mu        sync.Mutex
	saved     domain.State
	saves     int
	failSaves bool
	// failWhen fails a save whose state matches
	failWhen func(domain.State) bool
}

func newMemRepo(initial domain.State) *memRepo {
	if initial == nil {
		initial = make(domain.State)
	}
	return &memRepo{saved: initial.Clone()}
}

func (r *memRepo) Load() (domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved.Clone(), nil
}

func (r *memRepo) Save(state domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSaves || (r.failWhen != nil && r.failWhen(state)) {
		return errors.New("disk full")
	}
	r.saved = state.Clone()
	r.saves++
	return nil
}

func (r *memRepo) Close() error { return nil }

func (r *memRepo) Saved() domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved.Clone()
}

// fakePlatform implements domain.VideoPlatformClient from canned data
type fakePlatform struct {
	mu sync.Mutex

	listings    map[string]*domain.ChannelListing
	listErrors  map[string]error
	metadata    map[string]*domain.VideoMetadata // keyed by raw URL
	blockedMeta map[string]map[string]bool       // raw URL -> blocked codes
	blockedDl   map[string]map[string]bool       // video URL -> blocked codes
	panicOn     map[string]bool                  // video URL -> panic in DownloadVideo

	// onDownload runs before a download reports success
	onDownload func(videoURL string)

	metaCalls     []string
	downloadCalls []string
	downloadOpts  []domain.DownloadOptions
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		listings:    make(map[string]*domain.ChannelListing),
		listErrors:  make(map[string]error),
		metadata:    make(map[string]*domain.VideoMetadata),
		blockedMeta: make(map[string]map[string]bool),
		blockedDl:   make(map[string]map[string]bool),
		panicOn:     make(map[string]bool),
	}
}

func (f *fakePlatform) ListChannelVideos(ctx context.Context, channelURL string) (*domain.ChannelListing, error) {
	if err := f.listErrors[channelURL]; err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrListingFailed, err)
	}
	listing, ok := f.listings[channelURL]
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %s", domain.ErrListingFailed, channelURL)
	}
	return listing, nil
}

func (f *fakePlatform) FetchVideoMetadata(ctx context.Context, videoURL, geoCountry string) (*domain.VideoMetadata, error) {
	f.mu.Lock()
	f.metaCalls = append(f.metaCalls, videoURL+"@"+geoCountry)
	f.mu.Unlock()

	if f.blockedMeta[videoURL][geoCountry] {
		return nil, fmt.Errorf("%w %q", domain.ErrGeoBlocked, geoCountry)
	}
	meta, ok := f.metadata[videoURL]
	if !ok {
		return nil, fmt.Errorf("%w %q: unavailable", domain.ErrGeoBlocked, geoCountry)
	}
	copied := *meta
	return &copied, nil
}

func (f *fakePlatform) DownloadVideo(ctx context.Context, videoURL, geoCountry string, opts domain.DownloadOptions) error {
	f.mu.Lock()
	f.downloadCalls = append(f.downloadCalls, videoURL+"@"+geoCountry)
	f.downloadOpts = append(f.downloadOpts, opts)
	f.mu.Unlock()

	if f.panicOn[videoURL] {
		panic("extractor crashed")
	}
	if f.blockedDl[videoURL][geoCountry] {
		return fmt.Errorf("%w %q", domain.ErrGeoBlocked, geoCountry)
	}
	if f.onDownload != nil {
		f.onDownload(videoURL)
	}
	return nil
}

func (f *fakePlatform) DownloadCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.downloadCalls...)
}

func (f *fakePlatform) MetaCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.metaCalls...)
}

func blockSet(codes ...string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}
	return set
}
