package storefront

const productFields = `
fragment ProductFields on Product {
  id
  handle
  title
  description
  productType
  vendor
  tags
  availableForSale
  priceRange { minVariantPrice { amount currencyCode } }
  compareAtPriceRange { minVariantPrice { amount currencyCode } }
  images(first: 10) { nodes { url altText } }
  variants(first: 100) {
    nodes {
      id
      title
      availableForSale
      sku
      price { amount currencyCode }
      compareAtPrice { amount currencyCode }
      selectedOptions { name value }
      image { url altText }
    }
  }
}`

const productByIDQuery = `
query ProductByID($id: ID!) {
  product(id: $id) { ...ProductFields }
}` + productFields

const productByHandleQuery = `
query ProductByHandle($handle: String!) {
  product(handle: $handle) { ...ProductFields }
}` + productFields

const searchProductsQuery = `
query SearchProducts($query: String!, $first: Int!) {
  products(first: $first, query: $query) { nodes { ...ProductFields } }
}` + productFields

const collectionProductsQuery = `
query CollectionProducts($handle: String!, $first: Int!) {
  collection(handle: $handle) {
    id
    handle
    title
    products(first: $first) { nodes { ...ProductFields } }
  }
}` + productFields

const cartCreateMutation = `
mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart {
      id
      checkoutUrl
      totalQuantity
      cost {
        subtotalAmount { amount currencyCode }
        totalAmount { amount currencyCode }
      }
    }
    userErrors { field message }
  }
}`
