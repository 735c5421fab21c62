package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
)

// ErrNotFound means PubChem has no compound for the identifier. Recorded as
// the not-found sentinel, never retried.
var ErrNotFound = errors.New("not found in PubChem")

// compoundProperties is the property set requested from the PUG REST property
// table, in request (and display) order.
var compoundProperties = []string{
	"MolecularFormula", "MolecularWeight", "CanonicalSMILES", "IsomericSMILES",
	"InChI", "InChIKey", "IUPACName", "XLogP", "ExactMass", "MonoisotopicMass",
	"TPSA", "Complexity", "Charge", "HBondDonorCount", "HBondAcceptorCount",
	"RotatableBondCount", "HeavyAtomCount", "IsotopeAtomCount", "AtomStereoCount",
	"DefinedAtomStereoCount", "UndefinedAtomStereoCount", "BondStereoCount",
	"DefinedBondStereoCount", "UndefinedBondStereoCount", "CovalentUnitCount",
	"Volume3D", "XStericQuadrupole3D", "YStericQuadrupole3D", "ZStericQuadrupole3D",
	"FeatureCount3D", "FeatureAcceptorCount3D", "FeatureDonorCount3D",
	"FeatureAnionCount3D", "FeatureCationCount3D", "FeatureRingCount3D",
	"FeatureHydrophobeCount3D", "ConformerModelRMSD3D", "EffectiveRotorCount3D",
	"ConformerCount3D",
}

// recordSections are the record headings mined for free-text experimental
// properties (boiling point, melting point, ...).
var recordSections = []string{"Physical Properties", "Chemical and Physical Properties"}

// Client is a PubChem PUG REST lookup client.
type Client struct {
	BaseURL    string
	MaxRetries int
	HTTP       *http.Client
}

// NewClient returns a Client for the given endpoint.
func NewClient(baseURL string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		MaxRetries: maxRetries,
		HTTP:       &http.Client{Timeout: timeout},
	}
}

// Resolve looks up one CAS number and returns the compound record, retrying
// throttled requests with increasing delay.
func (c *Client) Resolve(cas string) (*model.Compound, error) {
	return retryWithBackoff("PubChem", cas, c.MaxRetries, func() (*model.Compound, error) {
		return c.resolveOnce(cas)
	})
}

func (c *Client) resolveOnce(cas string) (*model.Compound, error) {
	cid, err := c.lookupCID(cas)
	if err != nil {
		return nil, err
	}

	compound, err := c.fetchProperties(cid)
	if err != nil {
		return nil, err
	}

	// Record sections are best effort: a missing heading must not fail a
	// lookup that already produced the structure.
	for _, section := range recordSections {
		props, err := c.fetchSection(cid, section)
		if err != nil {
			log.Printf("[!] PubChem section %q for CID %d failed: %v", section, cid, err)
			continue
		}
		compound.Extra = append(compound.Extra, props...)
	}

	return compound, nil
}

// lookupCID maps a CAS number to the first matching PubChem compound ID.
func (c *Client) lookupCID(cas string) (int64, error) {
	var data struct {
		IdentifierList struct {
			CID []int64 `json:"CID"`
		} `json:"IdentifierList"`
	}
	u := fmt.Sprintf("%s/compound/name/%s/cids/JSON", c.BaseURL, url.PathEscape(cas))
	if err := c.getJSON(u, &data); err != nil {
		return 0, err
	}
	if len(data.IdentifierList.CID) == 0 {
		return 0, fmt.Errorf("CAS number %s: %w", cas, ErrNotFound)
	}
	return data.IdentifierList.CID[0], nil
}

// fetchProperties reads the property table for a CID.
func (c *Client) fetchProperties(cid int64) (*model.Compound, error) {
	var data struct {
		PropertyTable struct {
			Properties []map[string]interface{} `json:"Properties"`
		} `json:"PropertyTable"`
	}
	u := fmt.Sprintf("%s/compound/cid/%d/property/%s/JSON",
		c.BaseURL, cid, strings.Join(compoundProperties, ","))
	if err := c.getJSON(u, &data); err != nil {
		return nil, err
	}
	if len(data.PropertyTable.Properties) == 0 {
		return nil, fmt.Errorf("empty property table for CID %d", cid)
	}

	props := data.PropertyTable.Properties[0]
	compound := &model.Compound{
		CID:              cid,
		CanonicalSMILES:  stringFromAny(props["CanonicalSMILES"]),
		IsomericSMILES:   stringFromAny(props["IsomericSMILES"]),
		InChI:            stringFromAny(props["InChI"]),
		InChIKey:         stringFromAny(props["InChIKey"]),
		IUPACName:        stringFromAny(props["IUPACName"]),
		MolecularFormula: stringFromAny(props["MolecularFormula"]),
		MolecularWeight:  stringFromAny(props["MolecularWeight"]),
	}
	// Keep the remaining table entries in request order so output is stable.
	named := map[string]bool{
		"MolecularFormula": true, "MolecularWeight": true, "CanonicalSMILES": true,
		"IsomericSMILES": true, "InChI": true, "InChIKey": true, "IUPACName": true,
	}
	for _, name := range compoundProperties {
		if named[name] {
			continue
		}
		if v, ok := props[name]; ok {
			compound.Extra = append(compound.Extra, model.Property{Name: name, Value: stringFromAny(v)})
		}
	}
	return compound, nil
}

// fetchSection walks one record section and collects its Name/Value pairs.
func (c *Client) fetchSection(cid int64, heading string) ([]model.Property, error) {
	var data struct {
		Record struct {
			Section []map[string]interface{} `json:"Section"`
		} `json:"Record"`
	}
	u := fmt.Sprintf("%s/compound/cid/%d/JSON?heading=%s",
		c.BaseURL, cid, url.QueryEscape(heading))
	if err := c.getJSON(u, &data); err != nil {
		return nil, err
	}

	var props []model.Property
	for _, s := range data.Record.Section {
		if stringFromAny(s["TOCHeading"]) != heading {
			continue
		}
		for _, sub := range sliceFromAny(s["Section"]) {
			for _, info := range sliceFromAny(sub["Information"]) {
				name := stringFromAny(info["Name"])
				value := markupString(info["Value"])
				if name != "" && value != "" {
					props = append(props, model.Property{Name: name, Value: value})
				}
			}
		}
	}
	return props, nil
}

func (c *Client) getJSON(u string, out interface{}) error {
	resp, err := c.HTTP.Get(u)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", u, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		// Keep the body excerpt: the retry layer matches PUGREST.ServerBusy
		// and friends on the message text.
		return fmt.Errorf("status %d: %s", resp.StatusCode, excerpt(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}
	return nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// stringFromAny converts a decoded JSON value to its display string.
func stringFromAny(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func sliceFromAny(value interface{}) []map[string]interface{} {
	raw, ok := value.([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// markupString digs Value.StringWithMarkup[0].String out of a record entry.
func markupString(value interface{}) string {
	m, ok := value.(map[string]interface{})
	if !ok {
		return ""
	}
	marks := sliceFromAny(m["StringWithMarkup"])
	if len(marks) == 0 {
		return ""
	}
	return stringFromAny(marks[0]["String"])
}
