// Package soatable reads Society of Actuaries mortality tables in their
// XTbML format, either from disk or from mort.soa.org, and converts them
// into life tables.
package soatable

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/parcr/lifeactuary/lifetable"
)

// Document is a decoded XTbML file. Select and ultimate publications carry
// several Table elements; aggregate tables carry one.
type Document struct {
	XMLName        xml.Name       `xml:"XTbML"`
	Classification Classification `xml:"ContentClassification"`
	Tables         []AxisTable    `xml:"Table"`
}

// Classification mirrors the ContentClassification header block.
type Classification struct {
	TableIdentity    string `xml:"TableIdentity"`
	ProviderName     string `xml:"ProviderName"`
	TableReference   string `xml:"TableReference"`
	ContentType      string `xml:"ContentType"`
	TableName        string `xml:"TableName"`
	TableDescription string `xml:"TableDescription"`
}

// AxisTable is one Table block: its values grouped by axis.
type AxisTable struct {
	ScalingFactor string `xml:"MetaData>ScalingFactor"`
	Axes          []Axis `xml:"Values>Axis"`
}

// Axis is a run of rates indexed by age.
type Axis struct {
	Rows []Row `xml:"Y"`
}

// Row is a single Y element: the age attribute and the rate text.
type Row struct {
	Age   int    `xml:"t,attr"`
	Value string `xml:",chardata"`
}

// Parse decodes an XTbML document.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("soatable: decode: %w", err)
	}
	if len(doc.Tables) == 0 || len(doc.Tables[0].Axes) == 0 {
		return nil, fmt.Errorf("soatable: document %q has no value axes", doc.Classification.TableIdentity)
	}
	return &doc, nil
}

// ParseFile decodes an XTbML file from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("soatable: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ID returns the SOA table identity.
func (d *Document) ID() string { return d.Classification.TableIdentity }

// Name returns the published table name.
func (d *Document) Name() string { return d.Classification.TableName }

// URL returns the mort.soa.org view address for the table.
func (d *Document) URL() string {
	return "https://mort.soa.org/ViewTable.aspx?&TableIdentity=" + d.Classification.TableIdentity
}

// Rates returns the first axis of the first table as a minimum age and a
// contiguous q column. Blank or NaN entries at either end are trimmed;
// the SOA exports pad some tables that way.
func (d *Document) Rates() (int, []float64, error) {
	return axisRates(d.Tables[0].Axes[0])
}

func axisRates(axis Axis) (int, []float64, error) {
	minAge := 0
	var qx []float64
	for _, row := range axis.Rows {
		val, ok := parseRate(row.Value)
		if !ok {
			if len(qx) == 0 {
				continue
			}
			break
		}
		if len(qx) == 0 {
			minAge = row.Age
		} else if row.Age != minAge+len(qx) {
			return 0, nil, fmt.Errorf("soatable: age gap at %d (expected %d)", row.Age, minAge+len(qx))
		}
		qx = append(qx, val)
	}
	if len(qx) == 0 {
		return 0, nil, fmt.Errorf("soatable: axis holds no usable rates")
	}
	return minAge, qx, nil
}

func parseRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(val) || val < 0 {
		return 0, false
	}
	return val, true
}

// LifeTable builds a life table from the document's first axis under the
// given fractional age assumption.
func (d *Document) LifeTable(assumption lifetable.Assumption) (*lifetable.LifeTable, error) {
	minAge, qx, err := d.Rates()
	if err != nil {
		return nil, err
	}
	return lifetable.New(lifetable.Builder{
		Name:       d.Name(),
		MinAge:     minAge,
		Qx:         qx,
		Assumption: assumption,
	})
}
