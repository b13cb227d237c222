package domain

// BloodUnit is one barcoded unit of a single component. Everything other
// than Component and BarcodeID is nullable until intake or a later update
// sets it.
type BloodUnit struct {
	Component     Component `db:"component" json:"component"`
	BarcodeID     string    `db:"barcode_id" json:"barcode_id"`
	Volume        *string   `db:"volume" json:"volume"`
	DateCollected *string   `db:"date_collected" json:"date_collected"`
	BloodType     *string   `db:"blood_type" json:"blood_type"`
	RhFactor      *string   `db:"rh_factor" json:"rh_factor"`
	HCV           *string   `db:"hcv" json:"hcv"`
	Syphilis      *string   `db:"syphilis" json:"syphilis"`
	HBsAg         *string   `db:"hbsag" json:"hbsag"`
	HIV           *string   `db:"hiv" json:"hiv"`
	Malaria       *string   `db:"malaria" json:"malaria"`
}

// Screening is the infectious-disease panel recorded against a unit. Values
// are stored as submitted.
type Screening struct {
	HCV      string `json:"hcv"`
	Syphilis string `json:"syphilis"`
	HBsAg    string `json:"hbsag"`
	HIV      string `json:"hiv"`
	Malaria  string `json:"malaria"`
}

// UnitLookup holds the typed-component records found for one barcode. A nil
// slot means the barcode is not stocked as that component.
type UnitLookup struct {
	PRBC   *BloodUnit `json:"prbc"`
	PC     *BloodUnit `json:"pc"`
	Plasma *BloodUnit `json:"plasma"`
}

// Empty reports whether no slot is filled.
func (l UnitLookup) Empty() bool {
	return l.PRBC == nil && l.PC == nil && l.Plasma == nil
}
