// Package xmp parses XMP packets: standalone sidecar files and the
// packet embedded in a JPEG APP1 segment. Properties appear either as
// attributes on rdf:Description or as child elements; both spellings
// are accepted and merged.
package xmp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed marks an XMP packet that does not parse as XML.
var ErrMalformed = errors.New("malformed xmp packet")

// Packet is the flattened set of properties the cataloger reads from an
// XMP document. String values are raw; normalization happens downstream.
type Packet struct {
	Title       string
	Description string
	Creator     string
	Rights      string
	Keywords    []string
	Rating      *int
	Label       string
	CreateDate  string
	Lens        string

	City     string
	State    string
	Country  string
	Location string

	Latitude    string // "47,21.6000N" form
	Longitude   string
	Altitude    string // rational "1234/10"
	AltitudeRef string
}

// HasGPS reports whether both coordinate properties are present.
func (p *Packet) HasGPS() bool {
	return p.Latitude != "" && p.Longitude != ""
}

type xmpMeta struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     struct {
		Descriptions []xmpDescription `xml:"Description"`
	} `xml:"RDF"`
}

// rdfRoot covers documents that skip the x:xmpmeta wrapper and start
// straight at rdf:RDF. Some exporters write sidecars that way.
type rdfRoot struct {
	XMLName      xml.Name         `xml:"RDF"`
	Descriptions []xmpDescription `xml:"Description"`
}

// xmpDescription carries each property twice: once as an attribute and
// once as a child element. Writers differ on which form they emit.
type xmpDescription struct {
	RatingAttr      string `xml:"Rating,attr"`
	LabelAttr       string `xml:"Label,attr"`
	CreateDateAttr  string `xml:"CreateDate,attr"`
	LensAttr        string `xml:"Lens,attr"`
	CityAttr        string `xml:"City,attr"`
	StateAttr       string `xml:"State,attr"`
	CountryAttr     string `xml:"Country,attr"`
	LocationAttr    string `xml:"Location,attr"`
	LatitudeAttr    string `xml:"GPSLatitude,attr"`
	LongitudeAttr   string `xml:"GPSLongitude,attr"`
	AltitudeAttr    string `xml:"GPSAltitude,attr"`
	AltitudeRefAttr string `xml:"GPSAltitudeRef,attr"`

	Rating      string `xml:"Rating"`
	Label       string `xml:"Label"`
	CreateDate  string `xml:"CreateDate"`
	DateTimeOriginal string `xml:"DateTimeOriginal"`
	Lens        string `xml:"Lens"`
	City        string `xml:"City"`
	State       string `xml:"State"`
	Country     string `xml:"Country"`
	Location    string `xml:"Location"`
	Latitude    string `xml:"GPSLatitude"`
	Longitude   string `xml:"GPSLongitude"`
	Altitude    string `xml:"GPSAltitude"`
	AltitudeRef string `xml:"GPSAltitudeRef"`

	Title       langAlt  `xml:"title"`
	Description langAlt  `xml:"description"`
	Rights      langAlt  `xml:"rights"`
	Creator     rdfSeq   `xml:"creator"`
	Subject     rdfBag   `xml:"subject"`
	HierSubject rdfBag   `xml:"hierarchicalSubject"`
}

type langAlt struct {
	Alt struct {
		Items []string `xml:"li"`
	} `xml:"Alt"`
}

func (a langAlt) first() string {
	if len(a.Alt.Items) == 0 {
		return ""
	}
	return strings.TrimSpace(a.Alt.Items[0])
}

type rdfSeq struct {
	Seq struct {
		Items []string `xml:"li"`
	} `xml:"Seq"`
}

type rdfBag struct {
	Bag struct {
		Items []string `xml:"li"`
	} `xml:"Bag"`
}

// Parse decodes an XMP packet. Leading xpacket processing instructions
// and trailing packet padding are tolerated.
func Parse(data []byte) (*Packet, error) {
	var meta xmpMeta
	if err := xml.Unmarshal(data, &meta); err != nil {
		var root rdfRoot
		if err2 := xml.Unmarshal(data, &root); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		meta.RDF.Descriptions = root.Descriptions
	}

	p := &Packet{}
	seen := map[string]bool{}
	for _, d := range meta.RDF.Descriptions {
		take(&p.Title, d.Title.first())
		take(&p.Description, d.Description.first())
		take(&p.Rights, d.Rights.first())
		if p.Creator == "" && len(d.Creator.Seq.Items) > 0 {
			p.Creator = strings.TrimSpace(d.Creator.Seq.Items[0])
		}
		for _, kw := range d.Subject.Bag.Items {
			kw = strings.TrimSpace(kw)
			if kw != "" && !seen[kw] {
				seen[kw] = true
				p.Keywords = append(p.Keywords, kw)
			}
		}
		// Hierarchical subjects ("Travel|Germany|Hamburg") contribute
		// their leaf term when the flat bag is absent.
		for _, kw := range d.HierSubject.Bag.Items {
			parts := strings.Split(kw, "|")
			leaf := strings.TrimSpace(parts[len(parts)-1])
			if leaf != "" && !seen[leaf] {
				seen[leaf] = true
				p.Keywords = append(p.Keywords, leaf)
			}
		}

		if p.Rating == nil {
			if s := firstOf(d.RatingAttr, d.Rating); s != "" {
				if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
					p.Rating = &n
				}
			}
		}
		take(&p.Label, firstOf(d.LabelAttr, d.Label))
		take(&p.CreateDate, firstOf(d.DateTimeOriginal, d.CreateDateAttr, d.CreateDate))
		take(&p.Lens, firstOf(d.LensAttr, d.Lens))
		take(&p.City, firstOf(d.CityAttr, d.City))
		take(&p.State, firstOf(d.StateAttr, d.State))
		take(&p.Country, firstOf(d.CountryAttr, d.Country))
		take(&p.Location, firstOf(d.LocationAttr, d.Location))
		take(&p.Latitude, firstOf(d.LatitudeAttr, d.Latitude))
		take(&p.Longitude, firstOf(d.LongitudeAttr, d.Longitude))
		take(&p.Altitude, firstOf(d.AltitudeAttr, d.Altitude))
		take(&p.AltitudeRef, firstOf(d.AltitudeRefAttr, d.AltitudeRef))
	}
	return p, nil
}

// ParseFile reads and parses a sidecar file.
func ParseFile(path string) (*Packet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func take(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
