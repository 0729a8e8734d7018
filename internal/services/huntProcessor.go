package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"brilliox/leadhunter-backend/internal/dto"
	"brilliox/leadhunter-backend/internal/handlers"
)

// DefaultHuntResults is how many results each search call asks for when the
// request does not say.
const DefaultHuntResults = 20

// searchDomains are the listing and social sites hunted with site-restricted
// queries, in scan order.
var searchDomains = []string{
	"facebook.com",
	"olx.com.eg",
	"dubizzle.com.eg",
	"aqarmap.com.eg",
}

// citySubAreas expands a city into the sub-areas hunted one by one. Cities
// not listed here fall back to a single pass over the city name itself.
var citySubAreas = map[string][]string{
	"القاهرة": {"مدينة نصر", "المعادي", "مصر الجديدة", "المقطم", "شبرا"},
	"القاهرة الجديدة": {"التجمع الخامس", "التجمع الأول", "الرحاب", "مدينتي"},
	"الجيزة":          {"المهندسين", "الدقي", "الهرم", "فيصل"},
	"اكتوبر":          {"الحي المتميز", "الشيخ زايد", "حدائق أكتوبر"},
	"الاسكندرية":      {"سموحة", "سيدي جابر", "العجمي", "ميامي"},
	"الإسكندرية":      {"سموحة", "سيدي جابر", "العجمي", "ميامي"},
	"المنصورة":        {"حي الجامعة", "توريل", "المشاية"},
	"طنطا":            {"شارع البحر", "سيجر"},
}

// huntStore is the slice of the Supabase handler the processor needs.
type huntStore interface {
	UpdateHuntRunStatus(runID string, status string, leadsFound *int, errorMessage *string) error
	UpsertLeadByPhone(lead *dto.Lead) (string, error)
	InsertHuntLog(huntLog *dto.HuntLog) error
}

// searcher is the slice of the search handler the processor needs.
type searcher interface {
	Search(ctx context.Context, params handlers.SearchParams) (*handlers.SearchResponse, error)
}

// HuntProcessor runs background lead hunts: it expands a city into sub-areas,
// fires a fixed set of queries per sub-area, classifies every snippet and
// upserts qualifying leads keyed on their normalized phone.
type HuntProcessor struct {
	store  huntStore
	search searcher

	// now is injected for tests
	now func() time.Time
}

// NewHuntProcessor creates a new HuntProcessor instance
func NewHuntProcessor(store huntStore, search searcher) *HuntProcessor {
	return &HuntProcessor{
		store:  store,
		search: search,
		now:    time.Now,
	}
}

// subAreasFor returns the sub-areas to hunt for a city.
func subAreasFor(city string) []string {
	if areas, ok := citySubAreas[strings.TrimSpace(city)]; ok {
		return areas
	}
	return []string{strings.TrimSpace(city)}
}

// queriesFor builds the deterministic query list for one sub-area: one
// site-restricted query per scanned domain, then the generic buyer phrasing.
func queriesFor(query, subArea string) []string {
	queries := make([]string, 0, len(searchDomains)+1)
	for _, domain := range searchDomains {
		queries = append(queries, fmt.Sprintf("site:%s مطلوب %s %s", domain, query, subArea))
	}
	queries = append(queries, fmt.Sprintf("مطلوب %s %s", query, subArea))
	return queries
}

// scoreForTier is the initial score of a hunted lead: a phone is always
// present, and an excellent snippet counts as a high-quality source.
func scoreForTier(tier string) float64 {
	switch tier {
	case handlers.TierExcellent:
		return dto.ClampScore(1.0 + 2.0)
	case handlers.TierGood:
		return dto.ClampScore(1.0 + 1.0)
	default:
		return dto.MinScore
	}
}

// ProcessHunt executes one hunt run to completion. It is meant to run on a
// background goroutine after the HTTP trigger has been acknowledged. A hunt
// log summary is written no matter how the run ends; individual search
// failures are logged and skipped, never abort the run.
func (p *HuntProcessor) ProcessHunt(ctx context.Context, run *dto.HuntRun, maxResults int) {
	log.Printf("[HuntProcessor] Starting hunt run: id=%s, query=%q, city=%s", run.ID, run.Query, run.City)

	if maxResults <= 0 {
		maxResults = DefaultHuntResults
	}

	started := p.now()
	resultCount := 0
	leadsFound := 0
	searchErrors := 0
	searchCalls := 0

	defer func() {
		huntLog := &dto.HuntLog{
			RunID:          run.ID,
			Query:          run.Query,
			City:           run.City,
			ResultCount:    resultCount,
			DomainsScanned: searchDomains,
			DurationMS:     p.now().Sub(started).Milliseconds(),
			Mode:           "sub_area_sweep",
		}
		if err := p.store.InsertHuntLog(huntLog); err != nil {
			log.Printf("[HuntProcessor] Failed to write hunt log for run %s: %v", run.ID, err)
		}
	}()

	if err := p.store.UpdateHuntRunStatus(run.ID, dto.RunRunning, nil, nil); err != nil {
		log.Printf("[HuntProcessor] Failed to mark run %s running: %v", run.ID, err)
		p.failRun(run.ID, fmt.Sprintf("failed to update status: %v", err))
		return
	}

	subAreas := subAreasFor(run.City)
	log.Printf("[HuntProcessor] Hunting %d sub-area(s) of %s", len(subAreas), run.City)

	for _, subArea := range subAreas {
		for _, query := range queriesFor(run.Query, subArea) {
			searchCalls++

			resp, err := p.search.Search(ctx, handlers.SearchParams{
				Q:   query,
				Num: maxResults,
			})
			if err != nil {
				searchErrors++
				log.Printf("[HuntProcessor] Search failed for %q, skipping: %v", query, err)
				continue
			}

			resultCount += resp.TotalResults
			leadsFound += p.harvestResults(resp.Results, run, subArea)
		}
	}

	if searchErrors == searchCalls && searchCalls > 0 {
		p.failRun(run.ID, fmt.Sprintf("all %d search calls failed", searchCalls))
		return
	}

	if err := p.store.UpdateHuntRunStatus(run.ID, dto.RunCompleted, &leadsFound, nil); err != nil {
		log.Printf("[HuntProcessor] Failed to mark run %s completed: %v", run.ID, err)
		return
	}

	log.Printf("[HuntProcessor] Hunt run completed: id=%s, results=%d, leads_found=%d, failed_searches=%d/%d",
		run.ID, resultCount, leadsFound, searchErrors, searchCalls)
}

// harvestResults classifies each result snippet and upserts a lead for every
// valid phone found in qualifying ones. Leads carry the run's intent as a
// tag and the hunting user as creator. Returns how many leads were upserted.
func (p *HuntProcessor) harvestResults(results []handlers.SearchResult, run *dto.HuntRun, subArea string) int {
	upserted := 0

	for _, result := range results {
		text := result.Title + " " + result.Snippet

		tier := handlers.ClassifySnippet(text)
		if tier == handlers.TierReject {
			continue
		}

		phones := handlers.ExtractPhones(text)
		if len(phones) == 0 {
			continue
		}

		score := scoreForTier(tier)
		for _, phone := range phones {
			lead := &dto.Lead{
				Phone:     phone,
				Status:    dto.StatusNew,
				Source:    dto.SourceHunt,
				Tier:      tier,
				Score:     score,
				Quality:   dto.QualityForScore(score),
				Notes:     fmt.Sprintf("Hunted in %s: %s", subArea, result.Link),
				Tags:      []string{run.Query},
				CreatedBy: run.UserID,
			}

			id, err := p.store.UpsertLeadByPhone(lead)
			if err != nil {
				log.Printf("[HuntProcessor] Failed to upsert lead %s: %v", phone, err)
				continue
			}
			upserted++
			log.Printf("[HuntProcessor] ✓ Lead %s (phone=%s, tier=%s)", id, phone, tier)
		}
	}

	return upserted
}

// failRun marks a run as failed with an error message
func (p *HuntProcessor) failRun(runID string, errorMessage string) {
	log.Printf("[HuntProcessor] Hunt run failed: id=%s, error=%s", runID, errorMessage)
	if err := p.store.UpdateHuntRunStatus(runID, dto.RunFailed, nil, &errorMessage); err != nil {
		log.Printf("[HuntProcessor] Failed to update run status to failed: %v", err)
	}
}
