package vis

import (
	"fmt"

	"github.com/PetLahev/fivb-monitor/internal/roster"
)

func getEventListRequest(start, end roster.Date) string {
	return "<Requests>" +
		"<Request Type='GetEventList' Fields='Code Name StartDate EndDate'>" +
		fmt.Sprintf("<Filter IsVisManaged='True' NoParentEvent='0' HasBeachTournament='True' StartDate='%s' EndDate='%s' />", start, end) +
		"</Request>" +
		"</Requests>"
}

func getEventRequest(eventNo int64) string {
	return fmt.Sprintf("<Requests><Request Type='GetEvent' No='%d'/></Requests>", eventNo)
}

func getBeachTeamListRequest(tournamentNo int64, status roster.Status) string {
	return "<Requests>" +
		"<Request Type='GetBeachTeamList' Fields='NoPlayer1 NoPlayer2 Name Rank Player1FederationCode'>" +
		fmt.Sprintf("<Filter NoTournament='%d' Status='%s'/>", tournamentNo, status) +
		"</Request>" +
		"</Requests>"
}
