package testutil

import "github.com/paveg/reviewrisk/internal/config"

// Fixture facts relied on by tests across packages.
//
//   - o1 early, two items, three payments; o2 late, boleto; o3 delivered
//     without a delivery date; o4 canceled; o5 on time with two reviews;
//     o6 carrier handoff before approval; o7 late; o8 early; o9 delivered
//     but never reviewed. o1 appears twice in the orders file.
//   - Delivered and labeled orders: o1 o2 o5 o6 o7 o8.
//   - Zip 01310 and 1310 are the same prefix; 55555 has no coordinates;
//     customer c8 lives in a zip absent from geolocation.
const (
	FixtureOrders          = 9
	FixtureDeliveredOrders = 7
	FixtureLabeledOrders   = 6
)

const rawOrders = `order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date
o1,c1,delivered,2018-01-02 10:00:00,2018-01-02 11:00:00,2018-01-04 09:00:00,2018-01-08 12:00:00,2018-01-20 00:00:00
o2,c2,delivered,2018-01-06 08:00:00,2018-01-06 09:00:00,2018-01-08 10:00:00,2018-01-30 10:00:00,2018-01-20 00:00:00
o3,c3,delivered,2018-01-10 10:00:00,2018-01-10 10:30:00,,,2018-01-25 00:00:00
o4,c4,canceled,2018-01-11 10:00:00,,,,2018-01-30 00:00:00
o5,c5,DELIVERED,2018-02-01 10:00:00,2018-02-01 10:10:00,2018-02-02 10:00:00,2018-02-05 10:00:00,2018-02-05 12:00:00
o6,c6,delivered,2018-02-07 14:00:00,2018-02-07 15:00:00,2018-02-06 10:00:00,2018-02-12 09:00:00,2018-02-20 00:00:00
o7,c7,delivered,2018-03-01 09:00:00,2018-03-01 09:30:00,2018-03-03 09:00:00,2018-03-15 09:00:00,2018-03-10 00:00:00
o8,c8,delivered,2018-03-05 10:00:00,2018-03-05 11:00:00,2018-03-06 11:00:00,2018-03-09 10:00:00,2018-03-20 00:00:00
o9,c1,delivered,2018-03-20 10:00:00,2018-03-20 11:00:00,2018-03-21 10:00:00,2018-03-24 10:00:00,2018-04-01 00:00:00
o1,c1,delivered,2018-01-02 10:00:00,2018-01-02 11:00:00,2018-01-04 09:00:00,2018-01-08 12:00:00,2018-01-20 00:00:00
`

const rawItems = `order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value
o1,1,p1,s1,2018-01-05 10:00:00,100.00,20.00
o1,2,p2,s2,2018-01-05 10:00:00,150.00,10.00
o2,1,p2,s2,2018-01-09 10:00:00,30.00,25.00
o3,1,p1,s1,2018-01-12 10:00:00,50.00,10.00
o4,1,p3,s1,2018-01-13 10:00:00,40.00,8.00
o5,1,p3,s3,2018-02-03 10:00:00,80.00,10.00
o6,1,p1,s1,2018-02-09 10:00:00,60.00,15.00
o7,1,p4,s2,2018-03-03 10:00:00,20.00,30.00
o8,1,p2,s3,2018-03-07 10:00:00,45.00,12.00
o9,1,p4,s3,2018-03-22 10:00:00,25.00,5.00
`

const rawProducts = `product_id,product_category_name,product_name_lenght,product_description_lenght,product_photos_qty,product_weight_g,product_length_cm,product_height_cm,product_width_cm
p1,cama_mesa_banho,40,300,2,1200,30,10,20
p2,beleza_saude,35,0,1,,20,10,10
p3,,50,200,,500,15,5,10
p4,informatica_acessorios,45,150,3,800,,10,10
p5,cama_mesa_banho,30,100,1,,40,10,30
`

const rawTranslation = `product_category_name,product_category_name_english
cama_mesa_banho,bed_bath_table
beleza_saude,health_beauty
`

const rawPayments = `order_id,payment_sequential,payment_type,payment_installments,payment_value
o1,1,credit_card,3,150.00
o1,2,voucher,1,50.00
o1,3,voucher,1,40.00
o2,1,boleto,1,55.00
o3,1,credit_card,2,60.00
o4,1,credit_card,1,48.00
o5,1,credit_card,4,90.00
o6,1,debit_card,0,75.00
o7,1,boleto,1,50.00
o8,1,credit_card,2,57.00
o9,1,credit_card,1,30.00
`

const rawReviews = `review_id,order_id,review_score,review_comment_title,review_comment_message,review_creation_date,review_answer_timestamp
r1,o1,5,,Adorei o produto,2018-01-09 00:00:00,2018-01-10 12:00:00
r2,o2,1,Atraso,Ainda não recebi nada,2018-01-25 00:00:00,2018-01-26 06:00:00
r3,o3,3,,,2018-01-26 00:00:00,2018-01-27 00:00:00
r4,o5,4,,,2018-02-06 00:00:00,2018-02-07 00:00:00
r5,o5,2,,Produto veio quebrado,2018-02-06 00:00:00,2018-02-08 00:00:00
r6,o6,4,Bom,nan,2018-02-13 00:00:00,
r7,o7,2,,O vendedor não responde,2018-03-16 00:00:00,2018-03-17 00:00:00
r8,o8,3,,Entrega demorou,2018-03-10 00:00:00,2018-03-11 00:00:00
`

const rawCustomers = `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
c1,u1,01310,sao paulo,SP
c2,u2,20040,rio de janeiro,RJ
c3,u3,30130,belo horizonte,MG
c4,u4,69005,manaus,AM
c5,u5,80010,curitiba,PR
c6,u6,01310,são paulo,sp
c7,u7,40010,salvador,BA
c8,u8,99999,nowhere,XX
`

const rawSellers = `seller_id,seller_zip_code_prefix,seller_city,seller_state
s1,01310,sao paulo,SP
s2,20040,rio de janeiro,RJ
s3,13010,campinas,SP
`

const rawGeolocation = `geolocation_zip_code_prefix,geolocation_lat,geolocation_lng,geolocation_city,geolocation_state
01310,-23.56,-46.65,sao paulo,SP
01310,-23.57,-46.66,sao paulo,SP
1310,-23.55,-46.64,são paulo,SP
20040,-22.90,-43.17,rio de janeiro,RJ
30130,-19.92,-43.94,belo horizonte,MG
69005,-3.13,-60.02,manaus,AM
80010,-25.43,-49.27,curitiba,PR
40010,-12.97,-38.50,salvador,BA
13010,-22.90,-47.06,campinas,SP
55555,,,ghost,PE
`

const rawLeads = `mql_id,first_contact_date,landing_page_id,origin
m1,2017-10-01,lp1,paid_search
m2,2017-10-02,lp2,organic_search
m3,2017-10-03,lp3,
`

const rawDeals = `mql_id,seller_id,business_segment,lead_type
m1,s1,home_decor,online_big
m2,s2,health_beauty,industry
m3,s1,car_accessories,online_small
m4,,audio_video,online_medium
`

// RawFixtures returns the synthetic raw snapshot keyed by input name.
func RawFixtures() map[string]string {
	return map[string]string{
		config.InputOrders:              rawOrders,
		config.InputItems:               rawItems,
		config.InputProducts:            rawProducts,
		config.InputCategoryTranslation: rawTranslation,
		config.InputPayments:            rawPayments,
		config.InputReviews:             rawReviews,
		config.InputCustomers:           rawCustomers,
		config.InputSellers:             rawSellers,
		config.InputGeolocation:         rawGeolocation,
		config.InputMarketingLeads:      rawLeads,
		config.InputClosedDeals:         rawDeals,
	}
}
