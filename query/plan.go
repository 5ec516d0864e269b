// Package query implements the C4 component: a pure function deriving,
// for an ordered list of production footprints against one raster, the
// per-production sample footprint, the cache tiles it depends on, its
// resample sub-footprints, and the inverse cache-tile -> production-index
// map.
//
// Grounded on original_source/buzzard/_query_infos.py (QueryInfos),
// preserving its same_grid/share_area branching and its
// build_sampling_footprint_to_remap + tile_count(boundary_effect='shrink')
// split-by-max_resampling_size behavior.
package query

import (
	"fmt"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/remap"
)

// RasterInfo is the subset of a scheduled raster's state the planner reads
// (spec.md §4.3 "Input").
type RasterInfo struct {
	FP                 footprint.Footprint
	CacheTiles         []footprint.Footprint
	MaxResamplingSize  int // 0 means unset: never split a resample
	Interpolation      remap.Interpolation
	AllowInterpolation bool
	Significant        float64 // 0 means 9.0
}

// Item is the derived plan for one production footprint (spec.md §3
// "Production item").
type Item struct {
	ProdFP     footprint.Footprint
	SameGrid   bool
	SharesArea bool

	// SampleFP is nil when ProdFP doesn't share area with the raster at all.
	SampleFP *footprint.Footprint

	// CacheTiles is the set of cache tiles SampleFP overlaps.
	CacheTiles []footprint.Footprint

	// ResampleFPs is always non-empty: at least [ProdFP] itself.
	ResampleFPs []footprint.Footprint

	// ResampleSampleDep maps each entry of ResampleFPs to the sample
	// footprint it individually needs (nil when that sub-tile is fully
	// outside the raster).
	ResampleSampleDep map[footprint.Footprint]*footprint.Footprint

	// ResampleCacheDeps maps each entry of ResampleFPs to the cache tiles
	// it depends on.
	ResampleCacheDeps map[footprint.Footprint][]footprint.Footprint
}

// Plan is the query planner's immutable output (spec.md §4.3 "Output is
// immutable and uniquely owned by the query").
type Plan struct {
	Items []Item

	// CacheTiles is the globally-ordered list of distinct cache tiles
	// needed across every Item, earliest-needed-first (priority = first
	// production index that needs it).
	CacheTiles []footprint.Footprint

	// CacheTileProducers maps each cache tile to the production indices
	// (into Items) that need it.
	CacheTileProducers map[footprint.Footprint][]int
}

// Build derives a Plan for prodFPs against raster.
func Build(raster RasterInfo, prodFPs []footprint.Footprint) (*Plan, error) {
	significant := raster.Significant
	if significant == 0 {
		significant = 9.0
	}

	items := make([]Item, 0, len(prodFPs))
	for _, prodFP := range prodFPs {
		item, err := planItem(raster, prodFP, significant)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	seen := make(map[footprint.Footprint]bool)
	var ordered []footprint.Footprint
	producers := make(map[footprint.Footprint][]int)
	for idx, item := range items {
		for _, ct := range item.CacheTiles {
			if !seen[ct] {
				seen[ct] = true
				ordered = append(ordered, ct)
			}
			producers[ct] = append(producers[ct], idx)
		}
	}

	return &Plan{Items: items, CacheTiles: ordered, CacheTileProducers: producers}, nil
}

func planItem(raster RasterInfo, prodFP footprint.Footprint, significant float64) (Item, error) {
	item := Item{
		ProdFP:     prodFP,
		SameGrid:   prodFP.SameGrid(raster.FP, significant),
		SharesArea: prodFP.ShareArea(raster.FP),
	}

	if !item.SharesArea {
		item.ResampleFPs = []footprint.Footprint{prodFP}
		item.ResampleSampleDep = map[footprint.Footprint]*footprint.Footprint{prodFP: nil}
		item.ResampleCacheDeps = map[footprint.Footprint][]footprint.Footprint{prodFP: nil}
		return item, nil
	}

	if item.SameGrid {
		sampleFP, err := footprint.Intersect(raster.FP, prodFP, significant)
		if err != nil {
			return Item{}, fmt.Errorf("query: same-grid intersection: %w", err)
		}
		item.SampleFP = &sampleFP
		item.ResampleFPs = []footprint.Footprint{prodFP}
		item.ResampleSampleDep = map[footprint.Footprint]*footprint.Footprint{prodFP: &sampleFP}
		item.CacheTiles = cacheTilesOverlapping(raster.CacheTiles, sampleFP)
		item.ResampleCacheDeps = map[footprint.Footprint][]footprint.Footprint{prodFP: item.CacheTiles}
		return item, nil
	}

	sampleFP, ok, err := remap.BuildSamplingFootprint(raster.FP, prodFP, raster.Interpolation, raster.AllowInterpolation, significant)
	if err != nil {
		return Item{}, err
	}
	if !ok {
		item.ResampleFPs = []footprint.Footprint{prodFP}
		item.ResampleSampleDep = map[footprint.Footprint]*footprint.Footprint{prodFP: nil}
		item.ResampleCacheDeps = map[footprint.Footprint][]footprint.Footprint{prodFP: nil}
		return item, nil
	}
	item.SampleFP = &sampleFP

	if raster.MaxResamplingSize <= 0 {
		item.ResampleFPs = []footprint.Footprint{prodFP}
		item.ResampleSampleDep = map[footprint.Footprint]*footprint.Footprint{prodFP: &sampleFP}
	} else {
		// Split the destination (produce) footprint, not the source sampling
		// footprint: max_resampling_size bounds the cost of one resample
		// operation, which scales with the destination tile's pixel count.
		// Each destination sub-tile then gets its own independently-clipped
		// sampling footprint (spec.md §4.3 "producing resample sub-footprints
		// and their own per-subtile sampling footprints").
		prSize := prodFP.RSize()
		countx := ceilDiv(prSize[0], raster.MaxResamplingSize)
		county := ceilDiv(prSize[1], raster.MaxResamplingSize)
		subTiles, err := prodFP.TileCount([2]int{countx, county})
		if err != nil {
			return Item{}, fmt.Errorf("query: splitting resample by max_resampling_size: %w", err)
		}
		item.ResampleFPs = subTiles
		item.ResampleSampleDep = make(map[footprint.Footprint]*footprint.Footprint, len(subTiles))
		for _, rfp := range subTiles {
			subSample, ok, err := remap.BuildSamplingFootprint(raster.FP, rfp, raster.Interpolation, raster.AllowInterpolation, significant)
			if err != nil {
				return Item{}, err
			}
			if ok {
				item.ResampleSampleDep[rfp] = &subSample
			} else {
				item.ResampleSampleDep[rfp] = nil
			}
		}
	}

	item.CacheTiles = cacheTilesOverlapping(raster.CacheTiles, sampleFP)
	item.ResampleCacheDeps = make(map[footprint.Footprint][]footprint.Footprint, len(item.ResampleFPs))
	for _, rfp := range item.ResampleFPs {
		item.ResampleCacheDeps[rfp] = cacheTilesOverlapping(raster.CacheTiles, rfp)
	}
	return item, nil
}

// cacheTilesOverlapping filters tiles to those sharing area with target.
// Valid because cache_tiles partition the raster's own Footprint on its own
// grid, so a bounding-box overlap test against a same-grid-derived target is
// exact.
func cacheTilesOverlapping(tiles []footprint.Footprint, target footprint.Footprint) []footprint.Footprint {
	var out []footprint.Footprint
	for _, ct := range tiles {
		if ct.ShareArea(target) {
			out = append(out, ct)
		}
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
