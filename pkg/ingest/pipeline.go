// Package ingest implements the voter-list ingestion pipeline: a single-pass
// batch transform over an uploaded tab-delimited file that validates rows,
// canonicalizes addresses, resolves party affiliations, deduplicates voters,
// and links new voters to the uploading campaign.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"os"

	"github.com/Gobusters/ectologger"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/pkg/addressing"
	"github.com/turnoutcrew/canvass/pkg/affiliation"
	"github.com/turnoutcrew/canvass/pkg/models"
)

// State identifies where a run is in its lifecycle.
type State string

const (
	StateOpening    State = "opening"
	StateReading    State = "reading"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
	StateOpenFailed State = "open_failed"
)

// AddressStore provides race-safe get-or-create semantics on the address
// dedup key.
type AddressStore interface {
	GetOrCreate(ctx context.Context, fields models.AddressFields) (*models.Address, error)
}

// VoterStore persists voters and answers dedup lookups.
type VoterStore interface {
	VoterFinder
	Create(ctx context.Context, fields models.VoterFields, addressID string, list models.VoterList) (*models.Voter, error)
}

// RelationStore bulk-persists campaign-voter relations. Conflicts with
// relations created by earlier lists or concurrent runs are absorbed, not
// errors.
type RelationStore interface {
	BulkCreate(ctx context.Context, relations []models.CampaignVoter) error
}

// ListStore writes the run outcome back onto the voter list.
type ListStore interface {
	SetProcessed(ctx context.Context, listID, processed string, isActive bool) error
}

// CampaignGetter loads the uploading campaign, including its home-address
// country.
type CampaignGetter interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
}

// TxBeginner starts a storage transaction carried on the returned context.
// Reuses the context's transaction when one is already open.
type TxBeginner interface {
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error)
}

// EventSink receives notifications about run outcomes. Emission is best
// effort: failures are logged and never change the summary.
type EventSink interface {
	VotersImported(ctx context.Context, list *models.VoterList, voters []*models.Voter)
	ListProcessed(ctx context.Context, list *models.VoterList, summary models.ImportSummary)
}

// Result reports the terminal state and counters of one run.
type Result struct {
	State     State
	Summary   models.ImportSummary
	NewVoters []*models.Voter

	relations []models.CampaignVoter
}

// Pipeline orchestrates ingestion runs. One pipeline serves many runs; all
// per-run state (counters, dedup seen-set, party cache) is local to Run.
type Pipeline struct {
	logger    ectologger.Logger
	addresses AddressStore
	voters    VoterStore
	relations RelationStore
	lists     ListStore
	campaigns CampaignGetter
	parties   affiliation.PartyLister
	tx        TxBeginner
	events    EventSink
	open      func(name string) (io.ReadCloser, error)
}

// NewPipeline creates an ingestion pipeline. tx and events may be nil; without
// tx the finalize writes run as individual statements.
func NewPipeline(
	logger ectologger.Logger,
	addresses AddressStore,
	voters VoterStore,
	relations RelationStore,
	lists ListStore,
	campaigns CampaignGetter,
	parties affiliation.PartyLister,
	tx TxBeginner,
	events EventSink,
) *Pipeline {
	return &Pipeline{
		logger:    logger,
		addresses: addresses,
		voters:    voters,
		relations: relations,
		lists:     lists,
		campaigns: campaigns,
		parties:   parties,
		tx:        tx,
		events:    events,
		open: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
}

// SetOpener overrides how list files are opened. Used by tests.
func (p *Pipeline) SetOpener(open func(name string) (io.ReadCloser, error)) {
	p.open = open
}

// Run processes one voter list. It is called exactly once, by the code path
// that created the list; edits to an existing list never re-trigger it.
// Row-level problems are absorbed into the summary counters; the only fatal
// path is failing to open the file. Rows are processed strictly in file
// order because a row's dedup decision depends on the rows before it.
func (p *Pipeline) Run(ctx context.Context, list *models.VoterList) (*Result, error) {
	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"voter_list_id": list.ID,
		"campaign_id":   list.CampaignID,
	})

	campaign, err := p.campaigns.GetByID(ctx, list.CampaignID)
	if err != nil {
		return nil, err
	}

	f, err := p.open(list.FileName)
	if err != nil {
		log.WithError(err).Warn("Could not open voter list file")
		if err := p.lists.SetProcessed(ctx, list.ID, models.ProcessedCouldNotOpen, false); err != nil {
			return nil, err
		}
		list.Processed = models.ProcessedCouldNotOpen
		list.IsActive = false
		return &Result{State: StateOpenFailed}, nil
	}
	defer f.Close()

	result, err := p.read(ctx, f, list, campaign)
	if err != nil {
		return nil, err
	}

	if err := p.finalize(ctx, list, result); err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{
		"total":      result.Summary.Total,
		"success":    result.Summary.Success,
		"duplicates": result.Summary.Duplicates,
		"bad_format": result.Summary.BadFormat,
	}).Info("Processed voter list")

	result.State = StateDone
	return result, nil
}

// read is the READING state: one pass over the file, accumulating counters
// and the set of relations to persist.
func (p *Pipeline) read(ctx context.Context, f io.Reader, list *models.VoterList, campaign *models.Campaign) (*Result, error) {
	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		// Empty or unreadable content yields a zero-row summary.
		return &Result{}, nil
	}

	resolver := affiliation.NewResolver(p.parties)
	deduper := NewDeduper(p.voters)
	result := &Result{}
	var relations []models.CampaignVoter

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Summary.Total++
			result.Summary.BadFormat++
			continue
		}
		result.Summary.Total++

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		fields, err := ParseRow(row)
		if err != nil {
			result.Summary.BadFormat++
			continue
		}

		// The campaign's home country stands in for a blank country column.
		country := row["country"]
		if country == "" {
			country = campaign.HomeCountry
		}

		addrFields, err := addressing.Normalize(models.AddressFields{
			Street:     row["street"],
			City:       row["city"],
			State:      row["state"],
			Country:    country,
			PostalCode: row["postal_code"],
		})
		if err != nil {
			result.Summary.BadFormat++
			continue
		}
		if err := validate.Struct(addrFields); err != nil {
			result.Summary.BadFormat++
			continue
		}

		affiliationID, err := resolver.Resolve(ctx, country, row["affiliation"])
		if err != nil {
			return nil, err
		}
		fields.AffiliationID = affiliationID

		identity := NewIdentity(fields.RegistrarID, addrFields)
		duplicate, err := deduper.IsDuplicate(ctx, identity)
		if err != nil {
			return nil, err
		}
		if duplicate {
			result.Summary.Duplicates++
			continue
		}

		address, err := p.addresses.GetOrCreate(ctx, addrFields)
		if err != nil {
			return nil, err
		}

		voter, err := p.voters.Create(ctx, *fields, address.ID, *list)
		if err != nil {
			return nil, err
		}

		deduper.MarkSeen(identity)
		relations = append(relations, models.CampaignVoter{
			CampaignID:  campaign.ID,
			VoterID:     voter.ID,
			VoterListID: list.ID,
			IsActive:    true,
		})
		result.NewVoters = append(result.NewVoters, voter)
		result.Summary.Success++
	}

	result.relations = relations
	return result, nil
}

// finalize is the FINALIZING state: persist the queued relations and the
// summary in one transaction, so a failed run never leaves relations on file
// for a list that was not marked processed.
func (p *Pipeline) finalize(ctx context.Context, list *models.VoterList, result *Result) error {
	var tx database.Tx
	if p.tx != nil {
		txCtx, t, err := p.tx.GetTx(ctx, nil)
		if err != nil {
			return err
		}
		defer t.Rollback(ctx)
		tx = t
		ctx = txCtx
	}

	if len(result.relations) > 0 {
		if err := p.relations.BulkCreate(ctx, result.relations); err != nil {
			return err
		}
	}

	processed := result.Summary.String()
	isActive := result.Summary.Success > 0
	if err := p.lists.SetProcessed(ctx, list.ID, processed, isActive); err != nil {
		return err
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}
	list.Processed = processed
	list.IsActive = isActive

	if p.events != nil {
		if len(result.NewVoters) > 0 {
			p.events.VotersImported(ctx, list, result.NewVoters)
		}
		p.events.ListProcessed(ctx, list, result.Summary)
	}
	return nil
}
