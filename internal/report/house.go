package report

import "strings"

// HouseReport lists the devices of a house, one Full device section per
// room, in the order the rooms are given. Rooms without devices are left
// out, so a house with no devices yields only the header line.
func HouseReport[D Item](house Item, rooms ...[]D) (string, error) {
	var b strings.Builder
	b.WriteString("В доме ")
	b.WriteString(house.ItemName())
	b.WriteString(" установлены следующие приборы: \n")

	for _, devices := range rooms {
		if len(devices) == 0 {
			continue
		}
		section, err := Full(KindDevice, devices)
		if err != nil {
			return "", err
		}
		b.WriteString(section)
	}
	return b.String(), nil
}
