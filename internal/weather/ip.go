// In file: internal/weather/ip.go
package weather

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultIPLookupURL is an ip-api.com compatible geolocation endpoint.
const DefaultIPLookupURL = "http://ip-api.com/json"

// LocateByIP returns the approximate position of an IP address. An empty ip
// locates the caller's own public address.
//
// The result follows the same policy as ResolveCoordinates: nil without an
// error when the address cannot be located, *LocationServiceError on timeout.
func (c *Client) LocateByIP(ctx context.Context, ip string) (*Coordinates, error) {
	endpoint := strings.TrimRight(c.ipLookupURL, "/")
	if ip != "" {
		endpoint += "/" + url.PathEscape(ip)
	}
	params := url.Values{}
	params.Set("fields", "status,message,lat,lon,city")

	status, body, err := c.get(ctx, endpoint, params)
	if err != nil {
		if isTimeout(err) {
			return nil, &LocationServiceError{Kind: LocationTimeout, Query: ip, Err: err}
		}
		log.Printf("IP lookup for %q failed: %v", ip, err)
		return nil, nil
	}
	if status < 200 || status > 299 || !gjson.ValidBytes(body) {
		log.Printf("IP lookup for %q returned status %d", ip, status)
		return nil, nil
	}

	data := gjson.ParseBytes(body)
	if data.Get("status").String() != "success" {
		log.Printf("IP lookup for %q was unsuccessful: %s", ip, data.Get("message").String())
		return nil, nil
	}
	return &Coordinates{
		Latitude:  data.Get("lat").Float(),
		Longitude: data.Get("lon").Float(),
		Name:      data.Get("city").String(),
	}, nil
}
