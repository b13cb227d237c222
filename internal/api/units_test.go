package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"bloodbank/m/domain"
)

func strPtr(s string) *string { return &s }

func TestSubmit_RequiresLogin(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.postForm(t, "/submit", url.Values{
		"barcodes": {"BC-1"}, "dates": {"2024-05-01"}, "components": {"PRBC"}, "volumes": {"250"},
	}, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, env.countUnits(t, domain.ComponentPRBC, "BC-1"))
}

func TestSubmit_RoutesEachRowToItsComponent(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)

	rec := env.postForm(t, "/submit", url.Values{
		"barcodes[]":   {"U-1", "U-2", "U-3", "U-4", "U-5"},
		"dates[]":      {"2024-05-01", "2024-05-01", "2024-05-02", "2024-05-02", "2024-05-03"},
		"components[]": {"PRBC", "PC", "PLASMA", "WB", "CRYO"},
		"volumes[]":    {"250", "50", "200", "450", "15"},
	}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data Submitted Successfully")
	assert.NotContains(t, rec.Body.String(), "Skipping insert")

	barcodes := map[domain.Component]string{
		domain.ComponentPRBC: "U-1", domain.ComponentPC: "U-2", domain.ComponentPlasma: "U-3",
		domain.ComponentWB: "U-4", domain.ComponentCryo: "U-5",
	}
	for c, barcode := range barcodes {
		for _, other := range domain.Components {
			want := 0
			if other == c {
				want = 1
			}
			assert.Equal(t, want, env.countUnits(t, other, barcode), "%s in %s", barcode, other)
		}
	}
}

func TestSubmit_DuplicateShowsNotice(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)
	env.seedUnits(t, domain.IntakeEntry{BarcodeID: "DUP-1", Component: "PC", Volume: strPtr("50")})

	rec := env.postForm(t, "/submit", url.Values{
		"barcodes": {"DUP-1"}, "dates": {"2024-05-01"}, "components": {"PC"}, "volumes": {"60"},
	}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Record with barcode ID DUP-1 already exists in table PC. Skipping insert.")
	assert.Equal(t, 1, env.countUnits(t, domain.ComponentPC, "DUP-1"))
}

func TestSubmit_PaddedBarcodeMatchesExisting(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)
	env.seedUnits(t, domain.IntakeEntry{BarcodeID: "A-1", Component: "PRBC"})

	rec := env.postForm(t, "/submit", url.Values{"barcodes": {" A-1 "}, "components": {"PRBC"}}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Record with barcode ID A-1 already exists in table PRBC. Skipping insert.")

	var n int
	require.NoError(t, env.db.Get(&n, `SELECT COUNT(*) FROM blood_units`))
	assert.Equal(t, 1, n)

	rec = env.postForm(t, "/search", url.Values{"barcode": {"  A-1"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"barcode_id":"A-1"`)
}

func TestSubmit_LogsSubmittingStaff(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	env := newLoggedTestEnv(t, Options{}, zap.New(core))
	cookies := env.login(t)

	rec := env.postForm(t, "/submit", url.Values{"barcodes": {"L-1"}, "components": {"WB"}}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("units submitted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "admin", entries[0].ContextMap()["username"])
	assert.Equal(t, int64(1), entries[0].ContextMap()["inserted"])
}

func TestSubmit_NoticeIsEscaped(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)
	env.seedUnits(t, domain.IntakeEntry{BarcodeID: "<b>X</b>", Component: "PRBC"})

	rec := env.postForm(t, "/submit", url.Values{"barcodes": {"<b>X</b>"}, "components": {"PRBC"}}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<b>X</b>")
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;X&lt;/b&gt;")
}

func TestSubmit_UnknownComponentIsSkipped(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)

	rec := env.postForm(t, "/submit", url.Values{
		"barcodes": {"UNK-1"}, "dates": {"2024-05-01"}, "components": {"Platelets"}, "volumes": {"50"},
	}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data Submitted Successfully")

	var n int
	require.NoError(t, env.db.Get(&n, `SELECT COUNT(*) FROM blood_units`))
	assert.Zero(t, n)
}

func TestSubmit_JSONScalarsAndShortLists(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)

	rec := env.postJSON(t, "/submit", map[string]any{
		"barcodes":   []string{"J-1", "J-2"},
		"dates":      "2024-07-01",
		"components": []string{"PLASMA", "PLASMA"},
		"volumes":    250,
	}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var volume, date *string
	require.NoError(t, env.db.QueryRow(`SELECT volume, date_collected FROM blood_units WHERE barcode_id = 'J-1'`).Scan(&volume, &date))
	require.NotNil(t, volume)
	assert.Equal(t, "250", *volume)
	assert.Equal(t, "2024-07-01", *date)

	require.NoError(t, env.db.QueryRow(`SELECT volume, date_collected FROM blood_units WHERE barcode_id = 'J-2'`).Scan(&volume, &date))
	assert.Nil(t, volume)
	assert.Nil(t, date)
}

func TestSubmit_MissingBarcodes(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)

	rec := env.postForm(t, "/submit", url.Values{"components": {"PRBC"}}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_ConcurrentDuplicatesInsertOnce(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookies := env.login(t)

	const requests = 8
	var wg sync.WaitGroup
	codes := make([]int, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := env.postForm(t, "/submit", url.Values{
				"barcodes": {"RACE-9"}, "components": {"PRBC"}, "volumes": {"250"},
			}, cookies)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 1, env.countUnits(t, domain.ComponentPRBC, "RACE-9"))
}

func TestSubmit_DatabaseErrorIsOpaque(t *testing.T) {
	env, mock := newMockEnv(t)
	cookies := env.startSession(t)

	mock.ExpectExec(`INSERT INTO blood_units`).WillReturnError(errors.New("relation blood_units: secret detail"))

	rec := env.postForm(t, "/submit", url.Values{"barcodes": {"E-1"}, "components": {"WB"}}, cookies)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
	assert.Contains(t, rec.Body.String(), "Reference:")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_PlasmaOnly(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seedUnits(t, domain.IntakeEntry{BarcodeID: "S-1", Component: "PLASMA", Volume: strPtr("200"), DateCollected: strPtr("2024-06-01")})

	rec := env.postJSON(t, "/search", map[string]string{"barcode": "S-1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, `null`, string(body["prbc"]))
	assert.JSONEq(t, `null`, string(body["pc"]))

	var plasma domain.BloodUnit
	require.NoError(t, json.Unmarshal(body["plasma"], &plasma))
	assert.Equal(t, "S-1", plasma.BarcodeID)
	assert.Equal(t, domain.ComponentPlasma, plasma.Component)
	assert.Equal(t, "200", *plasma.Volume)
}

func TestSearch_NotFound(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seedUnits(t, domain.IntakeEntry{BarcodeID: "S-2", Component: "CRYO"})

	for _, barcode := range []string{"S-2", "NOPE"} {
		rec := env.postForm(t, "/search", url.Values{"barcode": {barcode}}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"error":"No records found for this barcode."}`, rec.Body.String())
	}
}

func TestSearch_MissingBarcode(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.postJSON(t, "/search", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_DatabaseErrorIsOpaque(t *testing.T) {
	env, mock := newMockEnv(t)
	mock.ExpectQuery(`SELECT component`).WillReturnError(errors.New("connection refused to 10.0.0.5"))

	rec := env.postJSON(t, "/search", map[string]string{"barcode": "S-3"}, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	assert.NotEmpty(t, body["error_id"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBloodType_UpdatesOnlyHoldingComponent(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seedUnits(t,
		domain.IntakeEntry{BarcodeID: "T-1", Component: "PC"},
		domain.IntakeEntry{BarcodeID: "T-2", Component: "PRBC"},
		domain.IntakeEntry{BarcodeID: "T-2", Component: "PLASMA"},
	)

	rec := env.postForm(t, "/addBloodType", url.Values{"barcode": {"T-1"}, "bloodtype": {"A"}, "rh": {"-"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp updateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var bt, rh *string
	require.NoError(t, env.db.QueryRow(`SELECT blood_type, rh_factor FROM blood_units WHERE component = 'PC' AND barcode_id = 'T-1'`).Scan(&bt, &rh))
	assert.Equal(t, "A", *bt)
	assert.Equal(t, "-", *rh)

	var untouched int
	require.NoError(t, env.db.Get(&untouched, `SELECT COUNT(*) FROM blood_units WHERE barcode_id = 'T-2' AND blood_type IS NULL`))
	assert.Equal(t, 2, untouched)
}

func TestAddBloodType_NotFound(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.postJSON(t, "/addBloodType", map[string]string{"barcode": "NOPE", "bloodtype": "O", "rh": "+"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"No rows updated. Barcode not found."}`, rec.Body.String())
}

func TestAddBloodType_DatabaseError(t *testing.T) {
	env, mock := newMockEnv(t)
	mock.ExpectExec(`UPDATE blood_units SET blood_type`).WillReturnError(errors.New("disk full"))

	rec := env.postJSON(t, "/addBloodType", map[string]string{"barcode": "X", "bloodtype": "O", "rh": "+"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitScreening_RedirectsAndPersists(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seedUnits(t, domain.IntakeEntry{BarcodeID: "SC-1", Component: "PRBC"})

	rec := env.postForm(t, "/submitScreening", url.Values{
		"barcode": {"SC-1"}, "hcv": {"negative"}, "syphilis": {"negative"},
		"hbsag": {"negative"}, "hiv": {"negative"}, "malaria": {"pending"},
	}, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/screening.html", rec.Header().Get("Location"))

	var hcv, malaria string
	require.NoError(t, env.db.QueryRow(`SELECT hcv, malaria FROM blood_units WHERE barcode_id = 'SC-1'`).Scan(&hcv, &malaria))
	assert.Equal(t, "negative", hcv)
	assert.Equal(t, "pending", malaria)
}

func TestSubmitScreening_UnknownBarcodeStillRedirects(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.postForm(t, "/submitScreening", url.Values{"barcode": {"NOPE"}, "hiv": {"negative"}}, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/screening.html", rec.Header().Get("Location"))
}

func TestSubmitScreening_DatabaseError(t *testing.T) {
	env, mock := newMockEnv(t)
	mock.ExpectExec(`UPDATE blood_units SET hcv`).WillReturnError(sqlmock.ErrCancelled)

	rec := env.postForm(t, "/submitScreening", url.Values{"barcode": {"X"}}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reference:")
	assert.NoError(t, mock.ExpectationsWereMet())
}
