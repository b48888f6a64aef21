package model

import (
    "maps"
    "slices"
    "time"
)

// Cinema represents a physical cinema as reconciled from every crawl source
// that has described it.  Sites disagree on the name, so a cinema carries a
// set of aliases that only ever grows.  Screens maps a cinema-local screen
// label ("<cinema name>#<screen name>") to its seat capacity.  This struct
// corresponds to a row in the `cinema` table.
//
// Fields:
//  ID          – primary key identifier.
//  Names       – name aliases, first-seen order.
//  County      – prefecture/county the cinema is in.
//  Company     – operating company.
//  Site        – official site URL; empty when no source reported one.
//  Screens     – screen label → seat capacity.
//  ScreenCount – number of screens in the most complete known screen map.
//  TotalSeats  – sum of capacities in that map.
//  Source      – crawl source that owns the screen data.
type Cinema struct {
    ID          uint64         // cinema.id
    Names       []string       // cinema.names (JSON array)
    County      string         // cinema.county
    Company     string         // cinema.company
    Site        string         // cinema.site (NULL when empty)
    Screens     map[string]int // cinema.screens (JSON object)
    ScreenCount int            // cinema.screen_count
    TotalSeats  int            // cinema.total_seats
    Source      string         // cinema.source
    CreatedAt   time.Time      // cinema.created_at
    UpdatedAt   time.Time      // cinema.updated_at
}

// HasSite reports whether the cinema is identified by (county, site).
func (c *Cinema) HasSite() bool { return c.Site != "" }

// Key is the identity used in logs and error reports.
func (c *Cinema) Key() string {
    if c.HasSite() {
        return c.County + "|" + c.Site
    }
    if len(c.Names) > 0 {
        return c.County + "|" + c.Names[0]
    }
    return c.County
}

// HasName reports whether name is one of the cinema's aliases.
func (c *Cinema) HasName(name string) bool {
    return slices.Contains(c.Names, name)
}

// AddNames appends aliases not yet known, keeping existing order.
func (c *Cinema) AddNames(names ...string) {
    for _, n := range names {
        if n != "" && !c.HasName(n) {
            c.Names = append(c.Names, n)
        }
    }
}

// Recount derives ScreenCount and TotalSeats from Screens.
func (c *Cinema) Recount() {
    c.ScreenCount = len(c.Screens)
    total := 0
    for _, seats := range c.Screens {
        total += seats
    }
    c.TotalSeats = total
}

// Clone returns a deep copy.
func (c *Cinema) Clone() *Cinema {
    out := *c
    out.Names = slices.Clone(c.Names)
    out.Screens = maps.Clone(c.Screens)
    return &out
}

// SameContent compares every stored field except ID and timestamps.
func (c *Cinema) SameContent(o *Cinema) bool {
    return slices.Equal(c.Names, o.Names) &&
        c.County == o.County &&
        c.Company == o.Company &&
        c.Site == o.Site &&
        maps.Equal(c.Screens, o.Screens) &&
        c.ScreenCount == o.ScreenCount &&
        c.TotalSeats == o.TotalSeats &&
        c.Source == o.Source
}
