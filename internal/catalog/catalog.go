// Package catalog loads aggregated building metadata and answers proximity
// lookups over it.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/ThiagoRGoveia/building-metadata/internal/models"
	"github.com/ThiagoRGoveia/building-metadata/pkg/fsutil"
)

// BucketSize is the edge length of one grid cell, in the units of the
// building coordinates (meters for the source data).
const BucketSize = 100.0

// maxBucket bounds bucket coordinates so they convert to int exactly.
const maxBucket = 1 << 52

var errCoordinateRange = errors.New("coordinates out of range")

type bucket struct {
	x, y int
}

type entry struct {
	building models.Building
	x, y     float64
}

// Match is a building returned by a proximity query.
type Match struct {
	Building models.Building `json:"building"`
	Distance float64         `json:"distance"`
}

// Index groups buildings into square buckets so a radius query only visits
// the cells the circle overlaps. Filenames are unique: adding a building whose
// filename is already indexed replaces the earlier one.
type Index struct {
	buckets    map[bucket][]entry
	byFilename map[string]bucket
}

func NewIndex() *Index {
	return &Index{
		buckets:    make(map[bucket][]entry),
		byFilename: make(map[string]bucket),
	}
}

// Add inserts buildings. A building whose coordinates cannot be parsed fails
// the whole call and leaves the buildings before it in the index.
func (idx *Index) Add(buildings ...models.Building) error {
	for _, building := range buildings {
		x, y, err := building.Coordinates()
		if err != nil {
			return fmt.Errorf("building %q: %w", building.Name(), err)
		}
		key, ok := bucketFor(x, y)
		if !ok {
			return fmt.Errorf("building %q: %w", building.Name(), errCoordinateRange)
		}

		name := building.Name()
		if previous, exists := idx.byFilename[name]; exists {
			idx.remove(previous, name)
		}
		idx.buckets[key] = append(idx.buckets[key], entry{building: building, x: x, y: y})
		idx.byFilename[name] = key
	}
	return nil
}

func (idx *Index) remove(key bucket, name string) {
	entries := idx.buckets[key]
	for i, e := range entries {
		if e.building.Name() == name {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(idx.buckets, key)
		return
	}
	idx.buckets[key] = entries
}

// Len returns the number of distinct filenames in the index.
func (idx *Index) Len() int {
	return len(idx.byFilename)
}

// Get returns the building stored under filename.
func (idx *Index) Get(filename string) (models.Building, bool) {
	key, ok := idx.byFilename[filename]
	if !ok {
		return models.Building{}, false
	}
	for _, e := range idx.buckets[key] {
		if e.building.Name() == filename {
			return e.building, true
		}
	}
	return models.Building{}, false
}

// Near returns every building whose centroid lies within radius of (x, y),
// closest first. Ties are ordered by filename. Non-finite coordinates, a NaN
// radius and a negative radius match nothing.
func (idx *Index) Near(x, y, radius float64) []Match {
	matches := make([]Match, 0)
	if !isFinite(x) || !isFinite(y) || math.IsNaN(radius) || radius < 0 {
		return matches
	}

	collect := func(entries []entry) {
		for _, e := range entries {
			if distance := math.Hypot(e.x-x, e.y-y); distance <= radius {
				matches = append(matches, Match{Building: e.building, Distance: distance})
			}
		}
	}

	minX := clampBucket(math.Floor((x - radius) / BucketSize))
	maxX := clampBucket(math.Ceil((x + radius) / BucketSize))
	minY := clampBucket(math.Floor((y - radius) / BucketSize))
	maxY := clampBucket(math.Ceil((y + radius) / BucketSize))

	// Never visit more cells than there are occupied buckets.
	cells := (maxX - minX + 1) * (maxY - minY + 1)
	if cells > float64(len(idx.buckets)) {
		for _, entries := range idx.buckets {
			collect(entries)
		}
	} else {
		for bx := int(minX); bx <= int(maxX); bx++ {
			for by := int(minY); by <= int(maxY); by++ {
				collect(idx.buckets[bucket{bx, by}])
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Building.Name() < matches[j].Building.Name()
	})
	return matches
}

func bucketFor(x, y float64) (bucket, bool) {
	bx, by := math.Floor(x/BucketSize), math.Floor(y/BucketSize)
	if !isFinite(x) || !isFinite(y) || math.Abs(bx) > maxBucket || math.Abs(by) > maxBucket {
		return bucket{}, false
	}
	return bucket{int(bx), int(by)}, true
}

func clampBucket(v float64) float64 {
	return math.Max(-maxBucket, math.Min(maxBucket, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LoadFile reads one aggregate file.
func LoadFile(path string) (models.Aggregate, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Aggregate{}, fmt.Errorf("failed to read metadata file %s: %w", path, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	var aggregate models.Aggregate
	if err := decoder.Decode(&aggregate); err != nil {
		return models.Aggregate{}, fmt.Errorf("failed to parse metadata file %s: %w", path, err)
	}
	return aggregate, nil
}

// LoadDir reads every aggregate file with extension ext directly inside dir,
// in file name order, and builds one index from all of them.
func LoadDir(dir, ext string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error listing directory %s: %w", dir, err)
	}

	idx := NewIndex()
	for _, e := range entries {
		if !fsutil.HasExtension(dir, e.Name(), ext) {
			continue
		}
		aggregate, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if err := idx.Add(aggregate.Buildings...); err != nil {
			return nil, fmt.Errorf("metadata file %s: %w", e.Name(), err)
		}
	}
	return idx, nil
}

// Open builds an index from path, which may be a single aggregate file or a
// directory of them.
func Open(path string) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path, ".json")
	}

	aggregate, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	idx := NewIndex()
	if err := idx.Add(aggregate.Buildings...); err != nil {
		return nil, fmt.Errorf("metadata file %s: %w", path, err)
	}
	return idx, nil
}
