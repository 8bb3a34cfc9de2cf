package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoutcrew/canvass/internal/database"
	"github.com/turnoutcrew/canvass/pkg/models"
)

var columns = []string{
	"first_name", "last_name", "dob", "gender", "affiliation",
	"registration_date", "registrar_id", "phone_number1", "phone_number2",
	"email", "street", "city", "state", "country", "postal_code",
}

func tsvRow(overrides map[string]string) string {
	defaults := map[string]string{
		"first_name":        "John",
		"last_name":         "Doe",
		"dob":               "1984-03-12",
		"gender":            "M",
		"affiliation":       "",
		"registration_date": "2020-01-05",
		"registrar_id":      "REG-1",
		"phone_number1":     "5551234567",
		"phone_number2":     "",
		"email":             "",
		"street":            "217 Tyne Road",
		"city":              "Portland",
		"state":             "OR",
		"country":           "US",
		"postal_code":       "97201",
	}
	for k, v := range overrides {
		defaults[k] = v
	}
	values := make([]string, len(columns))
	for i, col := range columns {
		values[i] = defaults[col]
	}
	return strings.Join(values, "\t")
}

func tsvFile(rows ...string) string {
	return strings.Join(append([]string{strings.Join(columns, "\t")}, rows...), "\n")
}

type fakeAddressStore struct {
	byKey map[models.AddressFields]*models.Address
	next  int
}

func newFakeAddressStore() *fakeAddressStore {
	return &fakeAddressStore{byKey: make(map[models.AddressFields]*models.Address)}
}

func (f *fakeAddressStore) GetOrCreate(ctx context.Context, fields models.AddressFields) (*models.Address, error) {
	if addr, ok := f.byKey[fields]; ok {
		return addr, nil
	}
	f.next++
	addr := &models.Address{
		ID:         fmt.Sprintf("addr-%d", f.next),
		Street:     fields.Street,
		City:       fields.City,
		State:      fields.State,
		Country:    fields.Country,
		PostalCode: fields.PostalCode,
	}
	f.byKey[fields] = addr
	return addr, nil
}

type fakeVoterStore struct {
	existing map[Identity]bool // identity -> is_active
	created  []*models.Voter
	next     int
}

func newFakeVoterStore() *fakeVoterStore {
	return &fakeVoterStore{existing: make(map[Identity]bool)}
}

func (f *fakeVoterStore) ActiveVoterExists(ctx context.Context, identity Identity) (bool, error) {
	return f.existing[identity], nil
}

func (f *fakeVoterStore) Create(ctx context.Context, fields models.VoterFields, addressID string, list models.VoterList) (*models.Voter, error) {
	f.next++
	voter := &models.Voter{
		ID:               fmt.Sprintf("voter-%d", f.next),
		FirstName:        fields.FirstName,
		LastName:         fields.LastName,
		DOB:              fields.DOB,
		Gender:           fields.Gender,
		AffiliationID:    fields.AffiliationID,
		IsActive:         true,
		RegistrationDate: fields.RegistrationDate,
		RegistrarID:      fields.RegistrarID,
		DumpDate:         list.DumpDate,
		AddressID:        addressID,
		PhoneNumber1:     fields.PhoneNumber1,
		PhoneNumber2:     fields.PhoneNumber2,
		Email:            fields.Email,
	}
	f.created = append(f.created, voter)
	return voter, nil
}

type fakeRelationStore struct {
	relations []models.CampaignVoter
	err       error
}

func (f *fakeRelationStore) BulkCreate(ctx context.Context, relations []models.CampaignVoter) error {
	if f.err != nil {
		return f.err
	}
	f.relations = append(f.relations, relations...)
	return nil
}

type fakeListStore struct {
	processed string
	isActive  bool
	calls     int
}

func (f *fakeListStore) SetProcessed(ctx context.Context, listID, processed string, isActive bool) error {
	f.calls++
	f.processed = processed
	f.isActive = isActive
	return nil
}

type fakeCampaignGetter struct {
	campaign models.Campaign
}

func (f *fakeCampaignGetter) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	c := f.campaign
	c.ID = id
	return &c, nil
}

type fakeParties struct {
	parties map[string][]models.PoliticalParty
}

func (f *fakeParties) ListByCountry(ctx context.Context, country string) ([]models.PoliticalParty, error) {
	return f.parties[country], nil
}

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (f *fakeTx) IsOpen() bool { return !f.committed && !f.rolledBack }

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (f *fakeTx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}

func (f *fakeTx) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return nil, nil
}

func (f *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *fakeTx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}

type fakeTxBeginner struct {
	tx    fakeTx
	begun int
}

func (f *fakeTxBeginner) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	f.begun++
	return ctx, &f.tx, nil
}

type recordingSink struct {
	imported  []*models.Voter
	processed []models.ImportSummary
}

func (r *recordingSink) VotersImported(ctx context.Context, list *models.VoterList, voters []*models.Voter) {
	r.imported = append(r.imported, voters...)
}

func (r *recordingSink) ListProcessed(ctx context.Context, list *models.VoterList, summary models.ImportSummary) {
	r.processed = append(r.processed, summary)
}

type pipelineFixture struct {
	pipeline  *Pipeline
	addresses *fakeAddressStore
	voters    *fakeVoterStore
	relations *fakeRelationStore
	lists     *fakeListStore
	tx        *fakeTxBeginner
	events    *recordingSink
}

func newPipelineFixture(content string) *pipelineFixture {
	fixture := &pipelineFixture{
		addresses: newFakeAddressStore(),
		voters:    newFakeVoterStore(),
		relations: &fakeRelationStore{},
		lists:     &fakeListStore{},
		tx:        &fakeTxBeginner{},
		events:    &recordingSink{},
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	parties := &fakeParties{parties: map[string][]models.PoliticalParty{
		"US": {
			{ID: "dem", Country: "US", Title: "Democratic Party"},
			{ID: "rep", Country: "US", Title: "Republican Party"},
		},
	}}
	campaigns := &fakeCampaignGetter{campaign: models.Campaign{HomeCountry: "US"}}

	fixture.pipeline = NewPipeline(logger, fixture.addresses, fixture.voters,
		fixture.relations, fixture.lists, campaigns, parties, fixture.tx, fixture.events)
	fixture.pipeline.SetOpener(func(name string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewBufferString(content)), nil
	})
	return fixture
}

func testList() *models.VoterList {
	return &models.VoterList{
		ID:         "list-1",
		DumpDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CampaignID: "campaign-1",
		FileName:   "dump.tsv",
	}
}

func TestRunImportsList(t *testing.T) {
	rows := []string{
		tsvRow(map[string]string{"registrar_id": "REG-1", "affiliation": "Democratic"}),
		tsvRow(map[string]string{"registrar_id": "REG-2", "street": "98 Maple Avenue"}),
		tsvRow(map[string]string{"registrar_id": "REG-3", "first_name": "Mary", "affiliation": "Republican"}),
		tsvRow(map[string]string{"registrar_id": "REG-4", "city": "Salem"}),
		tsvRow(map[string]string{"registrar_id": "REG-5", "email": "five@example.com"}),
		tsvRow(map[string]string{"registrar_id": "REG-6", "dob": ""}),
		tsvRow(map[string]string{"registrar_id": "REG-7", "gender": "F"}),
		tsvRow(map[string]string{"registrar_id": "REG-8", "affiliation": "Socialist"}),
		tsvRow(map[string]string{"registrar_id": "REG-9", "state": "WA", "postal_code": "98101"}),
		tsvRow(map[string]string{"registrar_id": "REG-1", "affiliation": "Democratic"}), // duplicate of row 1
		tsvRow(map[string]string{"registrar_id": "REG-10", "first_name": ""}),           // malformed
	}
	fixture := newPipelineFixture(tsvFile(rows...))
	list := testList()

	result, err := fixture.pipeline.Run(context.Background(), list)
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, models.ImportSummary{Total: 11, Success: 9, Duplicates: 1, BadFormat: 1}, result.Summary)
	assert.Len(t, fixture.voters.created, 9)
	assert.Len(t, fixture.relations.relations, 9)

	assert.Equal(t, "Imported 9 of 11 voters.  1 duplicates.  1 bad format.", list.Processed)
	assert.True(t, list.IsActive)
	assert.Equal(t, list.Processed, fixture.lists.processed)
	assert.True(t, fixture.lists.isActive)

	for _, relation := range fixture.relations.relations {
		assert.Equal(t, "campaign-1", relation.CampaignID)
		assert.Equal(t, "list-1", relation.VoterListID)
		assert.True(t, relation.IsActive)
	}

	// Affiliation and dump date carry onto the created voters.
	first := fixture.voters.created[0]
	require.NotNil(t, first.AffiliationID)
	assert.Equal(t, "dem", *first.AffiliationID)
	assert.Equal(t, list.DumpDate, first.DumpDate)

	// An unknown party text means unaffiliated, not malformed.
	eighth := fixture.voters.created[7]
	assert.Nil(t, eighth.AffiliationID)

	assert.Len(t, fixture.events.imported, 9)
	require.Len(t, fixture.events.processed, 1)
	assert.Equal(t, result.Summary, fixture.events.processed[0])
}

func TestRunOpenFailure(t *testing.T) {
	fixture := newPipelineFixture("")
	fixture.pipeline.SetOpener(func(name string) (io.ReadCloser, error) {
		return nil, os.ErrNotExist
	})
	list := testList()

	result, err := fixture.pipeline.Run(context.Background(), list)
	require.NoError(t, err)

	assert.Equal(t, StateOpenFailed, result.State)
	assert.Equal(t, models.ProcessedCouldNotOpen, list.Processed)
	assert.False(t, list.IsActive)
	assert.Equal(t, models.ProcessedCouldNotOpen, fixture.lists.processed)
	assert.Empty(t, fixture.voters.created)
	assert.Empty(t, fixture.relations.relations)
	assert.Empty(t, fixture.events.processed)
}

func TestRunEmptyFileIsInactive(t *testing.T) {
	fixture := newPipelineFixture("")
	list := testList()

	result, err := fixture.pipeline.Run(context.Background(), list)
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "Imported 0 of 0 voters.  0 duplicates.  0 bad format.", list.Processed)
	assert.False(t, list.IsActive)
}

func TestRunDedupIsOrderSensitive(t *testing.T) {
	rows := []string{
		tsvRow(map[string]string{"registrar_id": "REG-1", "first_name": "First"}),
		tsvRow(map[string]string{"registrar_id": "REG-1", "first_name": "Second"}),
	}
	fixture := newPipelineFixture(tsvFile(rows...))

	result, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Equal(t, models.ImportSummary{Total: 2, Success: 1, Duplicates: 1}, result.Summary)
	require.Len(t, fixture.voters.created, 1)
	assert.Equal(t, "First", fixture.voters.created[0].FirstName)
}

func TestRunStreetVariantsCollapse(t *testing.T) {
	rows := []string{
		tsvRow(map[string]string{"registrar_id": "REG-1", "street": "217  Tyne   Road"}),
		tsvRow(map[string]string{"registrar_id": "REG-1", "street": "217 Tyne Rd"}),
	}
	fixture := newPipelineFixture(tsvFile(rows...))

	result, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Success)
	assert.Equal(t, 1, result.Summary.Duplicates)
	require.Len(t, fixture.voters.created, 1)

	addr, err := fixture.addresses.GetOrCreate(context.Background(), models.AddressFields{
		Street: "217 Tyne Rd", City: "Portland", State: "OR", Country: "US", PostalCode: "97201",
	})
	require.NoError(t, err)
	assert.Equal(t, fixture.voters.created[0].AddressID, addr.ID)
}

func TestRunActiveVoterOnFileIsDuplicate(t *testing.T) {
	fixture := newPipelineFixture(tsvFile(tsvRow(map[string]string{"registrar_id": "REG-1"})))
	fixture.voters.existing[Identity{
		RegistrarID: "reg-1", Street: "217 Tyne Rd", Country: "US", State: "OR",
	}] = true

	result, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Duplicates)
	assert.Empty(t, fixture.voters.created)
}

func TestRunInactiveVoterDoesNotBlock(t *testing.T) {
	fixture := newPipelineFixture(tsvFile(tsvRow(map[string]string{"registrar_id": "REG-1"})))
	fixture.voters.existing[Identity{
		RegistrarID: "reg-1", Street: "217 Tyne Rd", Country: "US", State: "OR",
	}] = false

	result, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Success)
	assert.Len(t, fixture.voters.created, 1)
}

func TestRunMalformedRowsAreIsolated(t *testing.T) {
	rows := []string{
		tsvRow(map[string]string{"registrar_id": "REG-1", "dob": "garbage"}),
		"only\ttwo", // short row, missing columns
		tsvRow(map[string]string{"registrar_id": "REG-2", "state": "ZZ"}),
		tsvRow(map[string]string{"registrar_id": "REG-3", "postal_code": "abcde"}),
		tsvRow(map[string]string{"registrar_id": "REG-4"}),
	}
	fixture := newPipelineFixture(tsvFile(rows...))

	result, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Equal(t, models.ImportSummary{Total: 5, Success: 1, BadFormat: 4}, result.Summary)
	require.Len(t, fixture.voters.created, 1)
	assert.Equal(t, "REG-4", fixture.voters.created[0].RegistrarID)
}

func TestRunFinalizeCommitsOneTransaction(t *testing.T) {
	fixture := newPipelineFixture(tsvFile(tsvRow(map[string]string{"registrar_id": "REG-1"})))

	result, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 1, fixture.tx.begun)
	assert.True(t, fixture.tx.tx.committed)
	assert.False(t, fixture.tx.tx.rolledBack)
}

func TestRunFinalizeRollsBackOnRelationFailure(t *testing.T) {
	fixture := newPipelineFixture(tsvFile(tsvRow(map[string]string{"registrar_id": "REG-1"})))
	fixture.relations.err = errors.New("relation insert failed")
	list := testList()

	_, err := fixture.pipeline.Run(context.Background(), list)
	require.Error(t, err)

	assert.False(t, fixture.tx.tx.committed)
	assert.True(t, fixture.tx.tx.rolledBack)
	// The list keeps its pre-run state when the transaction fails.
	assert.Zero(t, fixture.lists.calls)
	assert.Empty(t, list.Processed)
	assert.Empty(t, fixture.events.processed)
}

func TestRunOpenFailureSkipsTransaction(t *testing.T) {
	fixture := newPipelineFixture("")
	fixture.pipeline.SetOpener(func(name string) (io.ReadCloser, error) {
		return nil, os.ErrNotExist
	})

	_, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Zero(t, fixture.tx.begun)
}

func TestRunBlankCountryUsesCampaignHomeCountry(t *testing.T) {
	row := tsvRow(map[string]string{"registrar_id": "REG-1", "country": "", "affiliation": "Democratic"})
	fixture := newPipelineFixture(tsvFile(row))

	result, err := fixture.pipeline.Run(context.Background(), testList())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Success)
	require.Len(t, fixture.voters.created, 1)
	voter := fixture.voters.created[0]
	require.NotNil(t, voter.AffiliationID)
	assert.Equal(t, "dem", *voter.AffiliationID)

	addr, err := fixture.addresses.GetOrCreate(context.Background(), models.AddressFields{
		Street: "217 Tyne Rd", City: "Portland", State: "OR", Country: "US", PostalCode: "97201",
	})
	require.NoError(t, err)
	assert.Equal(t, voter.AddressID, addr.ID)
}
