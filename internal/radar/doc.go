// Package radar models polar weather-radar observations.
//
// # Objects
//
// A polar [Object] is either a single [Scan] (one sweep at one elevation) or a
// [Volume] (an ordered set of scans from the same site). Anything else the
// storage layer hands back is tagged [KindOther] and is ignored by the
// compositing stages.
//
// # Value encoding
//
// Parameters and quality fields store raw values. The physical value is
//
//	value = raw*gain + offset
//
// Two raw values are reserved per parameter: nodata (not scanned) and
// undetect (scanned, nothing detected). Everything else is DATA.
//
// # Geometry
//
// Site longitude and latitude are stored in degrees, site height in meters
// above sea level, elevation angles in radians. Ray i covers azimuths
// [i*beamwidth, (i+1)*beamwidth) measured clockwise from north, and bin j covers
// slant ranges [rstart + j*rscale, rstart + (j+1)*rscale).
//
// # Source strings
//
// Sources follow the ODIM convention "KEY:value,KEY:value", for example
//
//	WMO:02262,RAD:SE43,PLC:Ornskoldsvik,NOD:seoer
//
// The node identifier used in product metadata is the NOD value, falling back
// to CMT and then RAD, WMO and PLC. See [Source.Node].
package radar
