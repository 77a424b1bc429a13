package valuation

import (
	"time"

	"go-paytax/internal/rates"
)

// PerquisitesSchemaVersion is bumped whenever a field is added to the
// persisted Perquisites payload so older records can be migrated on load.
const PerquisitesSchemaVersion = 2

// Perquisites groups every non-cash benefit for one employee and tax year.
// Each category is an optional pointer: nil means the benefit was not
// provided, which removes any "forgot to default this field" ambiguity.
// Always construct through NewPerquisites.
type Perquisites struct {
	SchemaVersion int `json:"schema_version"`

	Accommodation   *Accommodation    `json:"accommodation,omitempty"`
	Car             *Car              `json:"car,omitempty"`
	OtherVehicle    *OtherVehicle     `json:"other_vehicle,omitempty"`
	Medical         *Medical          `json:"medical,omitempty"`
	LTA             *LTA              `json:"lta,omitempty"`
	FreeEducation   *FreeEducation    `json:"free_education,omitempty"`
	Gas             *Utility          `json:"gas,omitempty"`
	Electricity     *Utility          `json:"electricity,omitempty"`
	Water           *Utility          `json:"water,omitempty"`
	DomesticHelp    *RecoveredBenefit `json:"domestic_help,omitempty"`
	Lunch           *RecoveredBenefit `json:"lunch,omitempty"`
	MonetaryBenefit *RecoveredBenefit `json:"monetary_benefit,omitempty"`
	GiftVoucher     *RecoveredBenefit `json:"gift_voucher,omitempty"`
	ClubExpense     *RecoveredBenefit `json:"club_expense,omitempty"`
	Loan            *Loan             `json:"loan,omitempty"`
	ESOP            *ESOP             `json:"esop,omitempty"`
	MovableUsage    *MovableUsage     `json:"movable_usage,omitempty"`
	MovableTransfer *MovableTransfer  `json:"movable_transfer,omitempty"`
}

// NewPerquisites is the single factory for a zero-valued Perquisites record.
func NewPerquisites() Perquisites {
	return Perquisites{SchemaVersion: PerquisitesSchemaVersion}
}

// Migrate backfills a payload persisted under an older schema version.
func (p *Perquisites) Migrate() {
	if p.SchemaVersion < PerquisitesSchemaVersion {
		p.SchemaVersion = PerquisitesSchemaVersion
	}
}

type AccommodationOwnership string

const (
	AccommodationEmployerOwned AccommodationOwnership = "employer_owned"
	AccommodationGovernment    AccommodationOwnership = "government"
	AccommodationLeased        AccommodationOwnership = "leased"
	AccommodationHotel         AccommodationOwnership = "hotel"
)

type FurnitureOwnership string

const (
	FurnitureNone          FurnitureOwnership = "none"
	FurnitureEmployerOwned FurnitureOwnership = "employer_owned"
	FurnitureHired         FurnitureOwnership = "hired"
)

type Accommodation struct {
	Ownership        AccommodationOwnership `json:"ownership"`
	PopulationTier   rates.PopulationTier   `json:"population_tier"`
	LeaseRent        float64                `json:"lease_rent"`
	EmployeeRentPaid float64                `json:"employee_rent_paid"`
	GovtLicenseFee   float64                `json:"govt_license_fee"`
	HotelCharges     float64                `json:"hotel_charges"`
	HotelStayDays    int                    `json:"hotel_stay_days"`

	FurnitureOwnership    FurnitureOwnership `json:"furniture_ownership"`
	FurnitureCost         float64            `json:"furniture_cost"`
	FurnitureHireCharges  float64            `json:"furniture_hire_charges"`
	FurnitureEmployeePaid float64            `json:"furniture_employee_paid"`
}

type CarUsage string

const (
	CarUsagePersonal CarUsage = "personal"
	CarUsageOfficial CarUsage = "official"
	CarUsageMixed    CarUsage = "mixed"
)

type Car struct {
	EngineAbove1600CC bool     `json:"engine_above_1600cc"`
	EmployerOwned     bool     `json:"employer_owned"`
	DriverProvided    bool     `json:"driver_provided"`
	Usage             CarUsage `json:"usage"`
	MonthlyCost       float64  `json:"monthly_cost"`
	Months            int      `json:"months"`
	// OfficialUseDocumented controls whether pure-official use carries the
	// zero value; without records the mixed-use rule applies.
	OfficialUseDocumented bool `json:"official_use_documented"`
}

type OtherVehicle struct {
	MonthlyCost  float64 `json:"monthly_cost"`
	Months       int     `json:"months"`
	OfficialOnly bool    `json:"official_only"`
}

type Medical struct {
	TreatedInIndia   bool    `json:"treated_in_india"`
	Reimbursed       float64 `json:"reimbursed"`
	TravelAllowance  float64 `json:"travel_allowance"`
	RBIIllnessLimit  float64 `json:"rbi_illness_limit"`
}

type TravelMode string

const (
	TravelModeAir  TravelMode = "air"
	TravelModeRail TravelMode = "rail"
	TravelModeRoad TravelMode = "road"
)

type LTA struct {
	Mode            TravelMode `json:"mode"`
	Claimed         float64    `json:"claimed"`
	PublicFare      float64    `json:"public_fare"`
	ClaimStart      *time.Time `json:"claim_start,omitempty"`
	ClaimEnd        *time.Time `json:"claim_end,omitempty"`
	ClaimsInBlock   int        `json:"claims_in_block"`
}

type EducationChild struct {
	EmployerInstitution bool    `json:"employer_institution"`
	Months              int     `json:"months"`
	MonthlyExpense      float64 `json:"monthly_expense"`
}

type FreeEducation struct {
	FirstChild  EducationChild `json:"first_child"`
	SecondChild EducationChild `json:"second_child"`
}

type Utility struct {
	ManufacturedByEmployer bool    `json:"manufactured_by_employer"`
	EmployerPaid           float64 `json:"employer_paid"`
	ManufacturingCost      float64 `json:"manufacturing_cost"`
	EmployeePaid           float64 `json:"employee_paid"`
}

// RecoveredBenefit covers the paid-minus-recovered categories: domestic help,
// lunch, monetary benefits, gift vouchers and club expenses.
type RecoveredBenefit struct {
	EmployerPaid      float64 `json:"employer_paid"`
	EmployeeRecovered float64 `json:"employee_recovered"`
	OfficialUse       float64 `json:"official_use"`
}

type LoanType string

const (
	LoanPersonal  LoanType = "personal"
	LoanHousing   LoanType = "housing"
	LoanVehicle   LoanType = "vehicle"
	LoanEducation LoanType = "education"
	LoanMedical   LoanType = "medical"
)

type Loan struct {
	Type        LoanType   `json:"type"`
	Principal   float64    `json:"principal"`
	CompanyRate float64    `json:"company_rate"`
	SBIRate     float64    `json:"sbi_rate"`
	EMI         float64    `json:"emi"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
}

type ESOP struct {
	GrantDate       *time.Time `json:"grant_date,omitempty"`
	VestingDate     *time.Time `json:"vesting_date,omitempty"`
	ExerciseDate    *time.Time `json:"exercise_date,omitempty"`
	SharesAwarded   int        `json:"shares_awarded"`
	SharesExercised int        `json:"shares_exercised"`
	AllotmentPrice  float64    `json:"allotment_price"`
	ExercisePrice   float64    `json:"exercise_price"`
}

type MovableUsage struct {
	EmployerOwned bool    `json:"employer_owned"`
	AssetCost     float64 `json:"asset_cost"`
	HireCharges   float64 `json:"hire_charges"`
	EmployeePaid  float64 `json:"employee_paid"`
}

type MovableTransfer struct {
	AssetType      rates.AssetType `json:"asset_type"`
	EmployerCost   float64         `json:"employer_cost"`
	EmployeePaid   float64         `json:"employee_paid"`
	CompletedYears int             `json:"completed_years"`
}
