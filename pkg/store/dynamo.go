package store

import (
	"errors"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	session "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
)

// dealRecord is the wire shape of one deal in the table. Money
// travels as fixed-point strings, timestamps as unix seconds so
// the lookback filter stays a numeric comparison.
type dealRecord struct {
	ID             string   `dynamodbav:"id"`
	Title          string   `dynamodbav:"title"`
	Brand          string   `dynamodbav:"brand,omitempty"`
	Sport          string   `dynamodbav:"sport,omitempty"`
	Category       string   `dynamodbav:"category,omitempty"`
	YouthFlag      bool     `dynamodbav:"youthFlag"`
	Sizes          []string `dynamodbav:"sizes,omitempty"`
	AgeRange       string   `dynamodbav:"ageRange,omitempty"`
	Price          string   `dynamodbav:"price"`
	MSRP           string   `dynamodbav:"msrp,omitempty"`
	Currency       string   `dynamodbav:"currency"`
	CouponCode     string   `dynamodbav:"couponCode,omitempty"`
	SKU            string   `dynamodbav:"sku,omitempty"`
	MPN            string   `dynamodbav:"mpn,omitempty"`
	GTIN           string   `dynamodbav:"gtin,omitempty"`
	Retailer       string   `dynamodbav:"retailer"`
	SourceURL      string   `dynamodbav:"sourceUrl"`
	CanonicalURL   string   `dynamodbav:"canonicalUrl"`
	ImageURL       string   `dynamodbav:"imageUrl,omitempty"`
	Stock          string   `dynamodbav:"stock"`
	StockLevel     string   `dynamodbav:"stockLevel,omitempty"`
	Score          float64  `dynamodbav:"score"`
	RelevanceScore float64  `dynamodbav:"relevanceScore"`
	Alternates     []string `dynamodbav:"alternateRetailers,omitempty"`
	FirstSeen      int64    `dynamodbav:"firstSeen"`
	LastSeen       int64    `dynamodbav:"lastSeen"`
}

// DynamoStore keeps canonical deals in one DynamoDB table
// keyed by deal ID.
type DynamoStore struct {
	tableName     string
	region        string
	credentials   *credentials.Credentials
	ActiveSession *session.Session
	initialized   bool
}

// NewDynamoStore wires credentials but defers the session until
// the first call that needs one.
func NewDynamoStore(id, secret, region, tableName string) (*DynamoStore, error) {
	if tableName == "" {
		return nil, errors.New("Dynamo table name required")
	}
	return &DynamoStore{
		tableName:   tableName,
		region:      region,
		credentials: credentials.NewStaticCredentials(id, secret, ""),
		initialized: true,
	}, nil
}

// Upsert writes every deal, overwriting on the id key
func (db *DynamoStore) Upsert(deals []*deal.Deal) error {
	if err := db.getSession(); err != nil {
		return err
	}
	svc := dynamodb.New(db.ActiveSession)

	for _, d := range deals {
		av, err := dynamodbattribute.MarshalMap(toRecord(d))
		if err != nil {
			log.WithFields(log.Fields{
				"deal":  d.ID,
				"error": err,
			}).Errorln("Failed to marshal deal")
			continue
		}

		input := &dynamodb.PutItemInput{
			Item:      av,
			TableName: aws.String(db.tableName),
		}
		if _, err = svc.PutItem(input); err != nil {
			return err
		}
	}

	return nil
}

// RecentDeals scans the table filtered by a lookback window
func (db *DynamoStore) RecentDeals(lookbackDays int64) ([]*deal.Deal, error) {
	if err := db.getSession(); err != nil {
		return nil, err
	}
	svc := dynamodb.New(db.ActiveSession)

	ts := time.Now().Unix() - (86400 * lookbackDays)
	filt := expression.Name("lastSeen").GreaterThan(expression.Value(ts))
	expr, err := expression.NewBuilder().WithFilter(filt).Build()
	if err != nil {
		return nil, err
	}

	params := &dynamodb.ScanInput{
		TableName:                 aws.String(db.tableName),
		ReturnConsumedCapacity:    aws.String("TOTAL"),
		ConsistentRead:            aws.Bool(true),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		FilterExpression:          expr.Filter(),
	}

	result, err := svc.Scan(params)
	if err != nil {
		return nil, err
	}

	var records []dealRecord
	if err = dynamodbattribute.UnmarshalListOfMaps(result.Items, &records); err != nil {
		return nil, err
	}

	deals := make([]*deal.Deal, 0, len(records))
	for i := range records {
		deals = append(deals, fromRecord(&records[i]))
	}
	return deals, nil
}

func (db *DynamoStore) getSession() error {
	if !db.initialized {
		return errors.New("Connection not initialized")
	}
	if db.ActiveSession != nil {
		return nil
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(db.region),
		Credentials: db.credentials,
	})
	if err != nil {
		return err
	}
	db.ActiveSession = sess
	return nil
}

func toRecord(d *deal.Deal) *dealRecord {
	r := &dealRecord{
		ID:             d.ID,
		Title:          d.Title,
		Brand:          d.Brand,
		Sport:          string(d.Sport),
		Category:       string(d.Category),
		YouthFlag:      d.YouthFlag,
		Sizes:          d.Sizes,
		AgeRange:       d.AgeRange,
		Price:          d.Price.StringFixed(2),
		Currency:       d.Currency,
		CouponCode:     d.CouponCode,
		SKU:            d.SKU,
		MPN:            d.MPN,
		GTIN:           d.GTIN,
		Retailer:       d.Retailer,
		SourceURL:      d.SourceURL,
		CanonicalURL:   d.CanonicalURL,
		ImageURL:       d.ImageURL,
		Stock:          d.Stock.String(),
		StockLevel:     d.StockLevel,
		Score:          d.Score,
		RelevanceScore: d.RelevanceScore,
		Alternates:     d.AlternateRetailers,
		FirstSeen:      d.FirstSeen.Unix(),
		LastSeen:       d.LastSeen.Unix(),
	}
	if !d.MSRP.IsZero() {
		r.MSRP = d.MSRP.StringFixed(2)
	}
	return r
}

func fromRecord(r *dealRecord) *deal.Deal {
	d := &deal.Deal{
		ID:                 r.ID,
		Title:              r.Title,
		Brand:              r.Brand,
		Sport:              deal.Sport(r.Sport),
		Category:           deal.Category(r.Category),
		YouthFlag:          r.YouthFlag,
		Sizes:              r.Sizes,
		AgeRange:           r.AgeRange,
		Currency:           r.Currency,
		CouponCode:         r.CouponCode,
		SKU:                r.SKU,
		MPN:                r.MPN,
		GTIN:               r.GTIN,
		Retailer:           r.Retailer,
		SourceURL:          r.SourceURL,
		CanonicalURL:       r.CanonicalURL,
		ImageURL:           r.ImageURL,
		StockLevel:         r.StockLevel,
		Score:              r.Score,
		RelevanceScore:     r.RelevanceScore,
		Scored:             true,
		AlternateRetailers: r.Alternates,
		FirstSeen:          time.Unix(r.FirstSeen, 0).UTC(),
		LastSeen:           time.Unix(r.LastSeen, 0).UTC(),
	}
	if p, err := decimal.NewFromString(r.Price); err == nil {
		d.Price = p
	}
	if r.MSRP != "" {
		if m, err := decimal.NewFromString(r.MSRP); err == nil {
			d.MSRP = m
		}
	}
	switch r.Stock {
	case deal.StockIn.String():
		d.Stock = deal.StockIn
	case deal.StockOut.String():
		d.Stock = deal.StockOut
	}
	return d
}
