package discovery

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleResponse = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"
            xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery"
            xmlns:dn="http://www.onvif.org/ver10/network/wsdl">
  <s:Body>
    <d:ProbeMatches>
      <d:ProbeMatch>
        <d:EndpointReference>
          <d:Address>urn:uuid:a1b2c3d4-e5f6-7890-abcd-ef1234567890</d:Address>
        </d:EndpointReference>
        <d:Types>dn:NetworkVideoTransmitter</d:Types>
        <d:Scopes>onvif://www.onvif.org/hardware/P3265-LVE onvif://www.onvif.org/name/AXIS%20P3265-LVE onvif://www.onvif.org/location/LoadingDockA</d:Scopes>
        <d:XAddrs>http://10.50.20.101:80/onvif/device_service http://[fe80::1]:80/onvif/device_service</d:XAddrs>
      </d:ProbeMatch>
      <d:ProbeMatch>
        <d:EndpointReference>
          <d:Address>urn:uuid:b2c3d4e5-f607-8901-bcde-f23456789012</d:Address>
        </d:EndpointReference>
        <d:Scopes>onvif://www.onvif.org/hardware/DS-2CD2085G1</d:Scopes>
        <d:XAddrs>http://10.50.20.102/onvif/device_service</d:XAddrs>
      </d:ProbeMatch>
      <d:ProbeMatch>
        <d:EndpointReference>
          <d:Address></d:Address>
        </d:EndpointReference>
      </d:ProbeMatch>
    </d:ProbeMatches>
  </s:Body>
</s:Envelope>`

func TestParse(t *testing.T) {
	cams, err := Parse(strings.NewReader(sampleResponse))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Camera{
		{
			UUID:       "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
			Model:      "P3265-LVE",
			Name:       "AXIS P3265-LVE",
			Location:   "LoadingDockA",
			ServiceURL: "http://10.50.20.101:80/onvif/device_service",
			IP:         "10.50.20.101",
		},
		{
			UUID:       "b2c3d4e5-f607-8901-bcde-f23456789012",
			Model:      "DS-2CD2085G1",
			ServiceURL: "http://10.50.20.102/onvif/device_service",
			IP:         "10.50.20.102",
		},
	}
	if diff := cmp.Diff(want, cams); diff != "" {
		t.Errorf("cameras mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoMatchesIsEmptyNotError(t *testing.T) {
	xml := `<Envelope xmlns="http://www.w3.org/2003/05/soap-envelope"><Body/></Envelope>`
	cams, err := Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cams) != 0 {
		t.Fatalf("want no cameras, got %d", len(cams))
	}
}

func TestParse_MalformedXML(t *testing.T) {
	if _, err := Parse(strings.NewReader("<Envelope><broken")); err == nil {
		t.Fatal("want error for malformed XML")
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if _, err := Parse(strings.NewReader("  \n")); err == nil {
		t.Fatal("want error for empty input")
	}
}

func TestAddresses(t *testing.T) {
	cams := []Camera{
		{ServiceURL: "http://10.50.20.101:8080/onvif/device_service"},
		{ServiceURL: "http://10.50.20.102/onvif/device_service"},
		{ServiceURL: ""},
	}
	got := Addresses(cams)
	want := []string{"10.50.20.101:8080", "10.50.20.102:80"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("addresses mismatch (-want +got):\n%s", diff)
	}
}
