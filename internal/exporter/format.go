package exporter

import (
	"fmt"
	"strconv"

	"dalcli/pkg/contracts/domain"
)

// Fixed output file names. Downstream systems look these up by name, so they
// are not configurable.
const (
	PassByPassFile    = "DB_PAO.csv"
	DayStatsFile      = "Statistiques.csv"
	SicpaFile         = "SICPA.csv"
	CompleteWeeksFile = "Semaines_completes.csv"
	EventLogFile      = "Evenements.csv"
	WorkbookFile      = "Rapport_DAL.xlsx"
)

// DefaultDistributor identifies the feeder unit in the SICPA export when the
// request does not override it.
const DefaultDistributor = "PAO_BOV_DAL_001"

// PassByPassHeaders is the fixed column set of DB_PAO.csv.
var PassByPassHeaders = []string{
	"URBAN_ID", "NUM", "Bande", "Courbe", "ALIMENT", "Date_Naiss", "Age",
	"Semaine", "Sem", "Prog_lait", "Conso_lait", "Conso_mat1", "Conso_mat2",
	"Conso_eau", "Date_debut", "Heure_debut", "Date_fin", "Heure_fin",
	"Temps_buvee",
}

// DayStatsHeaders is the fixed column set of Statistiques.csv and
// Semaines_completes.csv.
var DayStatsHeaders = []string{
	"NUM", "Bande", "ALIMENT", "JOUR", "Sem", "Conso_lait",
	"Conso_lait_theorique", "Ecart_conso_lait", "Temps_buvee_total",
	"Nombre_de_visites", "Visites_theoriques", "Ecart_visites",
	"Nb_sans_droit",
}

// SicpaHeaders is the fixed column set of SICPA.csv.
var SicpaHeaders = []string{
	"DISTRIBUTEUR", "ANIMAL", "ALIMENT", "ENTREE", "DUREE", "QUANTITE",
	"CONSIGNE",
}

// EventLogHeaders is the fixed column set of Evenements.csv.
var EventLogHeaders = []string{
	"ANIMAL", "ALIMENT", "DATE", "HEURE", "TYPE", "QUANTITE",
}

// PassByPassRows renders the pass-by-pass dataset.
func PassByPassRows(passes []domain.PassRecord) [][]string {
	rows := make([][]string, 0, len(passes))
	for _, p := range passes {
		rows = append(rows, []string{
			strconv.FormatInt(p.UrbanID, 10),
			strconv.FormatInt(p.TagNumber, 10),
			p.Cohort,
			strconv.Itoa(p.CurveID),
			p.FeedLabel,
			p.BirthDate.Format(domain.DateLayout),
			strconv.Itoa(p.AgeDays),
			fmt.Sprintf("%.1f", p.WeekValue),
			p.WeekLabel,
			formatQty(p.TargetMilk),
			formatQty(p.ActualMilk),
			formatQty(p.Feed1),
			formatQty(p.Feed2),
			formatQty(p.Water),
			p.Start.Format(domain.DateLayout),
			p.Start.Format("15:04:05"),
			p.End.Format(domain.DateLayout),
			p.End.Format("15:04:05"),
			domain.FormatDuration(p.Duration),
		})
	}
	return rows
}

// DayStatsRows renders the per-day statistics dataset. Unset theoretical
// values, deltas and rejection counts become empty cells, never zeros.
func DayStatsRows(days []domain.DayAggregate) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			strconv.FormatInt(d.TagNumber, 10),
			d.Cohort,
			d.FeedLabel,
			strconv.Itoa(d.AgeDays),
			d.WeekLabel,
			formatMilk(d.ActualMilk),
			formatMilkPtr(d.TheoreticalMilk),
			formatMilkPtr(d.MilkDelta),
			domain.FormatDuration(d.TotalDuration),
			strconv.Itoa(d.VisitCount),
			formatQtyPtr(d.TheoreticalVisits),
			formatIntPtr(d.VisitDelta),
			formatIntPtr(d.RejectionCount),
		})
	}
	return rows
}

// SicpaRows renders the external-system export from the pass-by-pass
// dataset. The visit entry timestamp uses the day-first layout SICPA
// ingests.
func SicpaRows(passes []domain.PassRecord, distributor, farmPrefix string) [][]string {
	if distributor == "" {
		distributor = DefaultDistributor
	}
	rows := make([][]string, 0, len(passes))
	for _, p := range passes {
		rows = append(rows, []string{
			distributor,
			farmPrefix + strconv.FormatInt(p.TagNumber, 10),
			p.FeedLabel,
			p.Start.Format("02/01/2006 15:04:05"),
			domain.FormatDuration(p.Duration),
			formatQty(p.ActualMilk),
			formatQty(p.TargetMilk),
		})
	}
	return rows
}

// EventLogRows renders the accepted/refused event log.
func EventLogRows(events []domain.EventRecord) [][]string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		qty := ""
		if e.Quantity != nil {
			qty = fmt.Sprintf("%.2f", *e.Quantity)
		}
		rows = append(rows, []string{
			e.Animal,
			e.FeedLabel,
			e.At.Format("02/01/2006"),
			e.At.Format("15:04"),
			string(e.Type),
			qty,
		})
	}
	return rows
}

// formatQty renders a raw quantity without trailing zeros.
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatMilk renders an aggregated milk figure with its fixed 3 decimals.
func formatMilk(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatMilkPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatMilk(*v)
}

func formatQtyPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatQty(*v)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
