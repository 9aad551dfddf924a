package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func (p *PDFProvider) GenerateTicketReceipt(ctx context.Context, receipt TicketReceipt) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := "Ticket receipt"
	if receipt.IsTest {
		title = "Ticket receipt (test)"
	}
	m.AddRow(20,
		text.NewCol(8, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "CloudStage", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Ticket: "+receipt.TicketID, props.Text{Top: 0}),
			text.New("Issued: "+receipt.IssuedAt, props.Text{Top: 4}),
			text.New("Payment: "+receipt.PaymentID, props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(receipt.EventTitle, props.Text{Style: fontstyle.Bold, Size: 12}),
			text.New("by "+receipt.ArtistName, props.Text{Top: 6}),
			text.New(receipt.EventStart, props.Text{Top: 11}),
		),
		col.New(6).Add(
			text.New("Admit", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.BuyerName, props.Text{Top: 5}),
			text.New(receipt.BuyerEmail, props.Text{Top: 10}),
		),
	)

	m.AddRow(4, line.NewCol(12))

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		text.NewCol(8, "Live stream access: "+receipt.EventTitle, props.Text{Size: 9}),
		text.NewCol(4, receipt.Price, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total paid", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.Price, props.Text{Size: 9, Align: align.Right, Style: fontstyle.Bold}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
